package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the whole runtime configuration, read from the environment.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"APP_PORT"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	SessionSecret string `mapstructure:"SESSION_SECRET"`
	// SecretKey signs API tokens; APIPass is the password they must carry.
	SecretKey string `mapstructure:"SECRET_KEY"`
	APIPass   string `mapstructure:"API_PASS"`

	UploadFolder string `mapstructure:"UPLOAD_FOLDER"`
	MaxUploadMB  int64  `mapstructure:"MAX_UPLOAD_MB"`
	PublicURL    string `mapstructure:"PUBLIC_URL"`

	MailServer        string `mapstructure:"MAIL_SERVER"`
	MailPort          int    `mapstructure:"MAIL_PORT"`
	MailUsername      string `mapstructure:"MAIL_USERNAME"`
	MailPassword      string `mapstructure:"MAIL_PASSWORD"`
	MailDefaultSender string `mapstructure:"MAIL_DEFAULT_SENDER"`
}

var defaults = map[string]any{
	"APP_ENV":             "development",
	"APP_PORT":            "8080",
	"DB_DRIVER":           "postgres",
	"DB_DSN":              "",
	"SESSION_SECRET":      "dev_fallback_secret",
	"SECRET_KEY":          "",
	"API_PASS":            "",
	"UPLOAD_FOLDER":       "instance/pictures",
	"MAX_UPLOAD_MB":       8,
	"PUBLIC_URL":          "",
	"MAIL_SERVER":         "",
	"MAIL_PORT":           587,
	"MAIL_USERNAME":       "",
	"MAIL_PASSWORD":       "",
	"MAIL_DEFAULT_SENDER": "bakery@localhost",
}

// Load reads .env files (current, parent and repo root, so it works when
// started from cmd/server), then the environment and an optional CONFIG_FILE.
func Load() (*Config, error) {
	_ = godotenv.Overload(existing(".env", "../.env", "../../.env")...)

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing required key at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.APIPass == "" {
		errs = append(errs, errors.New("API_PASS is required"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction switches logging and gin into release mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

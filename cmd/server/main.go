package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bakery/internal/config"
	mydb "bakery/internal/db"
	"bakery/internal/logger"
	"bakery/internal/mailer"
	"bakery/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := mydb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		lg.Fatal("open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		lg.Fatal("database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	applied, err := mydb.Migrate(db)
	if err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}
	if len(applied) > 0 {
		lg.Info("migrations applied", zap.Strings("versions", applied))
	}

	if err := os.MkdirAll(cfg.UploadFolder, 0o755); err != nil {
		lg.Fatal("create upload folder", zap.String("path", cfg.UploadFolder), zap.Error(err))
	}

	var sender mailer.Sender = mailer.LogSender{Logger: lg}
	if cfg.MailServer != "" {
		sender = mailer.SMTPSender{
			Host:     cfg.MailServer,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
		}
	} else {
		lg.Warn("MAIL_SERVER is empty; confirmation emails are only logged")
	}
	mail, err := mailer.New(sender, cfg.MailDefaultSender, lg)
	if err != nil {
		lg.Fatal("mailer", zap.Error(err))
	}

	srv, err := server.New(cfg, db, mail, lg)
	if err != nil {
		lg.Fatal("server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		lg.Error("server stopped", zap.Error(err))
	}
	mail.Wait()
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bakery/internal/accounts"
	"bakery/internal/api"
	"bakery/internal/catalog"
	"bakery/internal/config"
	"bakery/internal/mailer"
	"bakery/internal/metrics"
	"bakery/internal/upload"
	"bakery/internal/views"
	"bakery/internal/web"
)

const (
	sessionName     = "bakery_session"
	shutdownTimeout = 10 * time.Second
)

// Server wires the HTML site and the JSON API onto one gin engine.
type Server struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *zap.Logger
	router *gin.Engine
}

func New(cfg *config.Config, db *gorm.DB, mail *mailer.Mailer, logger *zap.Logger) (*Server, error) {
	pages, err := views.Pages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	r.SetHTMLTemplate(pages)
	r.StaticFS("/static", views.Static())

	s := &Server{cfg: cfg, db: db, logger: logger, router: r}
	r.GET("/health", s.health)
	r.GET("/metrics", metrics.Handler())

	users := accounts.NewStore(db)
	products := catalog.NewStore(db)

	web.NewHandler(users, products, mail, cfg.UploadFolder, logger, cfg.PublicURL).Register(r)

	v1 := r.Group(api.Prefix, api.RequireToken(cfg.SecretKey, cfg.APIPass))
	api.NewHandler(products, users, upload.Store{Dir: cfg.UploadFolder}, logger, cfg.PublicURL).Register(v1)

	return s, nil
}

func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/intake/internal/config"
	"github.com/ehr/intake/internal/domain/registration"
	"github.com/ehr/intake/internal/domain/theme"
	"github.com/ehr/intake/internal/platform/db"
	"github.com/ehr/intake/internal/platform/hipaa"
	"github.com/ehr/intake/internal/platform/middleware"
	"github.com/ehr/intake/internal/platform/notification"
)

// app is the wired server: routes, the draft session store and, for the
// postgres backend, the connection pool.
type app struct {
	cfg           *config.Config
	logger        zerolog.Logger
	echo          *echo.Echo
	sessions      *registration.SessionStore
	notifications *notification.NotificationManager
	pool          *pgxpool.Pool
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	encryption, err := hipaa.NewEncryptionService(cfg.HIPAAEncryptionKey, cfg.IsProduction(), logger)
	if err != nil {
		return nil, fmt.Errorf("init field encryption: %w", err)
	}

	scope, err := registration.ParseScope(cfg.ValidationScope)
	if err != nil {
		return nil, err
	}

	var records registration.RecordRepository
	if cfg.UsesDatabase() {
		a.pool, err = db.NewPool(ctx, db.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			ApplicationName: "intake-server",
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to database")
		records = registration.NewRecordRepoPG(a.pool, encryption.Encryptor())
	} else {
		logger.Warn().Dur("delay", cfg.SubmitDelay).Msg("using simulated submission backend, records are kept in memory")
		records = registration.NewMemoryRecordRepo()
	}

	var submitter registration.Submitter = registration.NewRepositorySubmitter(records)
	if cfg.SubmitBackend == config.BackendSimulated {
		submitter = registration.NewSimulatedSubmitter(cfg.SubmitDelay, submitter)
	}

	sender := notification.NewLogSender(logger)
	notifications := notification.NewNotificationManager(sender, sender, notification.NewTemplateEngine())
	a.notifications = notifications
	notifier := registration.NewNotificationNotifier(notifications, logger)

	a.sessions = registration.NewSessionStore(cfg.SessionTTL, func(id uuid.UUID) *registration.Form {
		return registration.NewForm(submitter,
			registration.WithScope(scope),
			registration.WithNotifier(notifier.ForSession(id)),
		)
	})
	svc := registration.NewService(a.sessions, records, cfg.SubmitTimeout)
	themes := theme.NewProvider(cfg.Theme, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/health"))
	e.Use(middleware.Audit(logger))

	e.GET("/health", a.health)
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(a.pool))
	}

	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rl))

	registration.NewHandler(svc).RegisterRoutes(apiV1)
	theme.NewHandler(themes).RegisterRoutes(apiV1)
	notification.NewNotificationHandler(notifications).RegisterRoutes(apiV1)

	a.echo = e
	return a, nil
}

func (a *app) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"backend":  a.cfg.SubmitBackend,
		"sessions": a.sessions.Len(),
	})
}

// sweepSessions evicts idle drafts until ctx is done.
func (a *app) sweepSessions(ctx context.Context) {
	if a.cfg.SessionTTL <= 0 {
		return
	}
	a.sessions.Run(ctx, a.cfg.SessionSweepInterval, func(removed int) {
		a.logger.Info().Int("removed", removed).Int("active", a.sessions.Len()).Msg("expired registration drafts removed")
	})
}

// pruneNotifications ages out the in-memory notification log until ctx is done.
func (a *app) pruneNotifications(ctx context.Context) {
	a.notifications.RunRetention(ctx, a.cfg.NotificationRetention, a.cfg.SessionSweepInterval, func(removed int) {
		a.logger.Info().Int("removed", removed).Msg("expired notifications removed")
	})
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) start() error {
	addr := ":" + a.cfg.Port
	a.logger.Info().Str("addr", addr).Bool("tls", a.cfg.TLSEnabled).Msg("starting server")
	if a.cfg.TLSEnabled {
		return a.echo.StartTLS(addr, a.cfg.TLSCertFile, a.cfg.TLSKeyFile)
	}
	return a.echo.Start(addr)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize server")
		return err
	}
	defer a.close()

	go a.sweepSessions(ctx)
	go a.pruneNotifications(ctx)

	go func() {
		if err := a.start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

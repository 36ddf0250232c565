// Command server runs the SquadFinders bot gateway: the HTTP API that the
// Telegram collector, the AI workers, and the bot itself talk to, plus the
// background sweeps that expire stale messages and deactivate aged players
// and user-seen entries.
//
//	@title			SquadFinders Bot Gateway API
//	@version		1.0
//	@description	Message lifecycle, player, and statistics API for the SquadFinders Telegram LFG pipeline.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/squadfinders/bot-gateway/docs"
	"github.com/squadfinders/bot-gateway/internal/config"
	httpapi "github.com/squadfinders/bot-gateway/internal/http"
	"github.com/squadfinders/bot-gateway/internal/observability"
	"github.com/squadfinders/bot-gateway/internal/repo"
	"github.com/squadfinders/bot-gateway/internal/scheduler"
	"github.com/squadfinders/bot-gateway/internal/services"
	"github.com/squadfinders/bot-gateway/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// shutdownGrace bounds how long in-flight HTTP requests get on SIGTERM.
const shutdownGrace = 10 * time.Second

func main() {
	// Local development convenience; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := sysutil.NewLogger(cfg.LogPretty)
	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = logger

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("opentelemetry setup failed")
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			logger.Warn().Err(err).Msg("opentelemetry shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	statsSvc := &services.StatsService{DB: db}
	msgSvc := &services.MessageService{
		DB:              db,
		ExpiryWindow:    cfg.AutoExpiry.Window,
		ClaimDefault:    cfg.ClaimDefault,
		ClaimCeiling:    cfg.ClaimCeiling,
		DuplicateWindow: cfg.DuplicateWindow,
		Stats:           statsSvc,
		Log:             logger,
	}

	jobs := scheduler.NewSet(db, msgSvc, cfg, logger)
	jobs.StartAll()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, msgSvc, statsSvc, jobs, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
		}
	}

	// Drain HTTP first so requests in flight can still reach the store, then
	// stop the background jobs.
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	jobs.StopAll()

	logger.Info().Msg("server stopped")
	os.Exit(0)
}

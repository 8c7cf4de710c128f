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

	"github.com/brasilfoto/zapcast/internal/api"
	"github.com/brasilfoto/zapcast/internal/bootstrap"
	"github.com/brasilfoto/zapcast/internal/chatbot"
	"github.com/brasilfoto/zapcast/internal/config"
	"github.com/brasilfoto/zapcast/internal/dispatcher"
	"github.com/brasilfoto/zapcast/internal/logger"
	"github.com/brasilfoto/zapcast/internal/storage"
)

func main() {
	// Load configuration from the "config" directory.
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured JSON logger.
	log := logger.New(cfg.Logging.Level)
	log.Info().Msg("starting API server")

	// Initialize database connection pool.
	ctx := context.Background()
	db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	queries := storage.New(db.Pool)

	if err := bootstrap.SeedSettings(ctx, queries); err != nil {
		log.Fatal().Err(err).Msg("failed to seed settings")
	}

	p, err := bootstrap.NewProvider(cfg.WhatsApp)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create provider")
	}
	log.Info().Str("provider", p.GetName()).Msg("provider initialized")

	bot := chatbot.New(queries, p, log)

	router := api.NewRouter(api.RouterDeps{
		Queries:            queries,
		Provider:           p,
		Bot:                bot,
		DB:                 db,
		WebhookVerifyToken: cfg.WhatsApp.WebhookVerifyToken,
		Log:                log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Optionally run the dispatcher inside this process. Single-box
	// deployments avoid the second binary this way.
	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()
	dispatcherDone := make(chan struct{})
	if cfg.Queue.RunInAPI {
		pacer, err := bootstrap.NewPacer(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pacer")
		}
		d := dispatcher.New(queries, p, pacer, bootstrap.DispatcherConfig(cfg.Queue), log)
		go func() {
			defer close(dispatcherDone)
			d.Run(dispatcherCtx)
		}()
	} else {
		close(dispatcherDone)
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down API server")

	stopDispatcher()
	<-dispatcherDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}

	log.Info().Msg("API server stopped")
}

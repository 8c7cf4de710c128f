package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brasilfoto/zapcast/internal/bootstrap"
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
	log.Info().Msg("starting queue worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool.
	db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	queries := storage.New(db.Pool)

	p, err := bootstrap.NewProvider(cfg.WhatsApp)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create provider")
	}
	log.Info().Str("provider", p.GetName()).Msg("provider initialized")

	pacer, err := bootstrap.NewPacer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pacer")
	}

	d := dispatcher.New(queries, p, pacer, bootstrap.DispatcherConfig(cfg.Queue), log)

	// Blocks until the context is canceled by a signal.
	d.Run(ctx)

	log.Info().Msg("queue worker stopped")
}

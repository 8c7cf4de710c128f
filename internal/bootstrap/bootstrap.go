// Package bootstrap wires shared startup pieces used by both binaries:
// provider and pacer construction and the settings seed.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/brasilfoto/zapcast/internal/config"
	"github.com/brasilfoto/zapcast/internal/dispatcher"
	"github.com/brasilfoto/zapcast/internal/provider"
	"github.com/brasilfoto/zapcast/internal/storage"
)

// SeedSettings makes sure the singleton settings row exists so the admin
// panel and the bot always have something to read. Idempotent.
func SeedSettings(ctx context.Context, queries storage.Querier) error {
	if err := queries.EnsureAppSettings(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// NewProvider builds the outbound provider from configuration.
func NewProvider(cfg config.WhatsAppConfig) (provider.Provider, error) {
	client := provider.NewHTTPClient(cfg.Timeout)
	return provider.New(cfg.Provider, provider.WhatsAppConfig{
		APIVersion:    cfg.APIVersion,
		PhoneNumberID: cfg.PhoneNumberID,
		Token:         cfg.Token,
		Endpoint:      cfg.Endpoint,
	}, client)
}

// NewPacer builds the send pacer from configuration. The redis pacer verifies
// connectivity at startup so a bad address fails fast instead of on the first
// send.
func NewPacer(ctx context.Context, cfg *config.Config) (dispatcher.Pacer, error) {
	switch cfg.Queue.Pacer {
	case "", "interval":
		return dispatcher.NewIntervalPacer(cfg.Queue.SendInterval), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return dispatcher.NewRedisPacer(client, "zapcast:send-slot", cfg.Queue.SendInterval), nil
	default:
		return nil, fmt.Errorf("unknown pacer %q", cfg.Queue.Pacer)
	}
}

// DispatcherConfig maps queue configuration onto the dispatcher.
func DispatcherConfig(cfg config.QueueConfig) dispatcher.Config {
	return dispatcher.Config{
		BatchSize:    cfg.BatchSize,
		MaxAttempts:  cfg.MaxAttempts,
		PollInterval: cfg.PollInterval,
		LeaseTimeout: cfg.LeaseTimeout,
	}
}

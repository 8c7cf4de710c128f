// Package dispatcher drains the outbound message queue: it leases batches of
// queued messages from Postgres, delivers them through the provider one at a
// time, and records the terminal or retry state of each attempt.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/brasilfoto/zapcast/internal/metrics"
	"github.com/brasilfoto/zapcast/internal/provider"
	"github.com/brasilfoto/zapcast/internal/storage"
)

// Store is the storage surface the dispatcher needs.
type Store interface {
	LeaseQueuedBatch(ctx context.Context, limit int32) ([]storage.Message, error)
	MarkMessageSent(ctx context.Context, arg storage.MarkMessageSentParams) error
	MarkMessageRetryOrFailed(ctx context.Context, arg storage.MarkMessageRetryOrFailedParams) (storage.MessageStatus, error)
	ReclaimStaleMessages(ctx context.Context, staleBefore time.Time) (int64, error)
	GetContactPhone(ctx context.Context, id uuid.UUID) (string, error)
}

// Config holds the dispatcher's tuning knobs.
type Config struct {
	// BatchSize is the maximum number of messages leased per tick.
	BatchSize int32
	// MaxAttempts is the delivery attempt budget per message.
	MaxAttempts int32
	// PollInterval is the delay between ticks.
	PollInterval time.Duration
	// LeaseTimeout requeues messages stuck in processing longer than this.
	// Zero disables reclaim, matching the behavior of deployments that
	// accept the stuck-processing hazard after a crash.
	LeaseTimeout time.Duration
}

// DefaultConfig returns a Config with the reference defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:    20,
		MaxAttempts:  3,
		PollInterval: 1 * time.Second,
	}
}

// Dispatcher is the queue engine. Multiple instances may run against the same
// database; the atomic lease keeps their batches disjoint.
type Dispatcher struct {
	store    Store
	provider provider.Provider
	pacer    Pacer
	cfg      Config
	log      zerolog.Logger
}

// New creates a Dispatcher.
func New(store Store, p provider.Provider, pacer Pacer, cfg Config, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		provider: p,
		pacer:    pacer,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes ticks on the configured poll interval until the context is
// canceled. Tick errors are logged and swallowed; the loop never terminates
// because of a failed tick.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.log.Info().
		Int32("batch_size", d.cfg.BatchSize).
		Int32("max_attempts", d.cfg.MaxAttempts).
		Dur("poll_interval", d.cfg.PollInterval).
		Msg("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("dispatcher stopping")
			return
		case <-ticker.C:
		}

		if err := d.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				d.log.Info().Msg("dispatcher stopping")
				return
			}
			metrics.QueueTickErrorsTotal.Inc()
			d.log.Error().Err(err).Msg("dispatcher tick failed")
		}
	}
}

// Tick performs one bounded unit of work: lease up to BatchSize queued
// messages and process them strictly in lease order. Per-message failures are
// recorded on the message itself; only infrastructure errors (lease failure,
// canceled context) are returned.
func (d *Dispatcher) Tick(ctx context.Context) error {
	if d.cfg.LeaseTimeout > 0 {
		reclaimed, err := d.store.ReclaimStaleMessages(ctx, time.Now().Add(-d.cfg.LeaseTimeout))
		if err != nil {
			return fmt.Errorf("reclaim stale messages: %w", err)
		}
		if reclaimed > 0 {
			d.log.Warn().Int64("count", reclaimed).Msg("requeued stale processing messages")
		}
	}

	batch, err := d.store.LeaseQueuedBatch(ctx, d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("lease batch: %w", err)
	}
	metrics.QueueLeaseBatchSize.Observe(float64(len(batch)))

	for _, msg := range batch {
		// The pacer is what bounds the aggregate send rate; it must be
		// consulted before every send, success or failure of the previous
		// one notwithstanding.
		if err := d.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("pacer: %w", err)
		}
		d.process(ctx, msg)
	}

	return nil
}

// process delivers a single leased message and resolves its state.
func (d *Dispatcher) process(ctx context.Context, msg storage.Message) {
	log := d.log.With().
		Stringer("message_id", msg.ID).
		Str("template", msg.TemplateName).
		Logger()

	result, err := d.deliver(ctx, msg)
	if err != nil {
		d.recordFailure(ctx, log, msg, err)
		return
	}

	providerID := pgtype.Text{String: result.ProviderMessageID, Valid: result.ProviderMessageID != ""}
	if err := d.store.MarkMessageSent(ctx, storage.MarkMessageSentParams{
		ID:                msg.ID,
		ProviderMessageID: providerID,
	}); err != nil {
		log.Error().Err(err).Msg("failed to mark message sent")
		return
	}

	metrics.QueueMessagesProcessedTotal.WithLabelValues("sent").Inc()
	log.Info().
		Str("provider_message_id", result.ProviderMessageID).
		Msg("message delivered")
}

// deliver resolves the recipient, decodes the template parameters, and sends.
func (d *Dispatcher) deliver(ctx context.Context, msg storage.Message) (*provider.DeliveryResult, error) {
	phone, err := d.store.GetContactPhone(ctx, msg.ContactID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contact %s not found for message", msg.ContactID)
		}
		return nil, fmt.Errorf("resolve contact %s: %w", msg.ContactID, err)
	}

	params, err := DecodeParams(msg.Params)
	if err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}

	start := time.Now()
	result, err := d.provider.SendTemplate(ctx, &provider.TemplateMessage{
		To:       phone,
		Template: msg.TemplateName,
		Language: msg.TemplateLang,
		Params:   params,
	})
	metrics.ProviderSendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordFailure persists a failed attempt: the message returns to queued
// until the attempt budget is exhausted, then becomes failed.
func (d *Dispatcher) recordFailure(ctx context.Context, log zerolog.Logger, msg storage.Message, sendErr error) {
	attempts := msg.AttemptCount + 1

	status, err := d.store.MarkMessageRetryOrFailed(ctx, storage.MarkMessageRetryOrFailedParams{
		ID:           msg.ID,
		AttemptCount: attempts,
		MaxAttempts:  d.cfg.MaxAttempts,
		Error:        errorDetail(sendErr),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The message left processing underneath us (e.g. reclaimed by
			// another instance after a long provider timeout).
			log.Warn().Msg("message no longer processing, skipping failure record")
			return
		}
		log.Error().Err(err).Msg("failed to record delivery failure")
		return
	}

	switch status {
	case storage.MessageStatusFailed:
		metrics.QueueMessagesProcessedTotal.WithLabelValues("failed").Inc()
		log.Warn().
			Err(sendErr).
			Int32("attempt_count", attempts).
			Bool("permanent", provider.IsPermanent(sendErr)).
			Msg("attempt budget exhausted, message failed")
	default:
		metrics.QueueMessagesProcessedTotal.WithLabelValues("retried").Inc()
		log.Warn().
			Err(sendErr).
			Int32("attempt_count", attempts).
			Int32("max_attempts", d.cfg.MaxAttempts).
			Msg("delivery failed, message requeued")
	}
}

// errorDetail extracts the error text persisted on the message: the
// provider's structured error body when present, the error description
// otherwise.
func errorDetail(err error) string {
	var pe *provider.ProviderError
	if errors.As(err, &pe) && pe.Body != "" {
		return pe.Body
	}
	return err.Error()
}

// DecodeParams decodes the stored template parameters. The column holds a
// JSON array of strings, but rows written by older enqueuers carry the array
// double-encoded as a JSON string; both forms are accepted.
func DecodeParams(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var params []string
	if err := json.Unmarshal(raw, &params); err == nil {
		return params, nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if nested == "" {
			return nil, nil
		}
		if err := json.Unmarshal([]byte(nested), &params); err != nil {
			return nil, fmt.Errorf("malformed nested template params: %w", err)
		}
		return params, nil
	}

	return nil, fmt.Errorf("malformed template params: %s", raw)
}

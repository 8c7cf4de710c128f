package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pacer enforces the provider's send-rate ceiling. Wait blocks until the
// caller may perform the next send. The dispatcher calls it once per message,
// so the ceiling holds across ticks, not just within a batch.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer paces sends within a single process: each Wait returns only
// after the configured interval has elapsed since the previous send slot.
type IntervalPacer struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewIntervalPacer creates an IntervalPacer with the given minimum inter-send
// delay. A non-positive interval disables pacing.
func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	return &IntervalPacer{interval: interval}
}

// Wait blocks until a full interval has passed since the last granted slot.
// The first call returns immediately.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if !p.last.IsZero() {
		if elapsed := now.Sub(p.last); elapsed < p.interval {
			sleep = p.interval - elapsed
		}
	}
	p.last = now.Add(sleep)
	p.mu.Unlock()

	if sleep == 0 {
		return nil
	}

	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RedisPacer paces sends across all dispatcher instances sharing one Redis.
// A send slot is a short-lived key claimed with SET NX PX: whoever claims it
// owns the next send, everyone else waits for the key to expire. This keeps
// the aggregate rate of a multi-instance deployment under the provider
// ceiling, which independent per-process pacing cannot.
type RedisPacer struct {
	client   *redis.Client
	key      string
	interval time.Duration
}

// NewRedisPacer creates a RedisPacer. All instances that must share one
// ceiling must use the same key.
func NewRedisPacer(client *redis.Client, key string, interval time.Duration) *RedisPacer {
	return &RedisPacer{
		client:   client,
		key:      key,
		interval: interval,
	}
}

// Wait blocks until this instance claims the shared send slot.
func (p *RedisPacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}

	for {
		ok, err := p.client.SetNX(ctx, p.key, 1, p.interval).Result()
		if err != nil {
			return fmt.Errorf("redis pacer: claim slot: %w", err)
		}
		if ok {
			return nil
		}

		ttl, err := p.client.PTTL(ctx, p.key).Result()
		if err != nil {
			return fmt.Errorf("redis pacer: read ttl: %w", err)
		}
		sleep := ttl
		if sleep <= 0 || sleep > p.interval {
			sleep = 10 * time.Millisecond
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}
	}
}

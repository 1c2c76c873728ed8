package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"refdata/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the backing cache is being bypassed.
var ErrCircuitOpen = errors.New("cache circuit open")

// Guarded skips a failing cache until its breaker lets a probe through.
// Reads while open behave as misses.
type Guarded struct {
	next    Cache
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next Cache, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !g.breaker.Allow() {
		return false, nil
	}
	hit, err := g.next.Get(ctx, key, dst)
	g.record(ctx, err)
	return hit, err
}

func (g *Guarded) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !g.breaker.Allow() {
		return nil
	}
	err := g.next.Set(ctx, key, value, ttl)
	g.record(ctx, err)
	return err
}

// Delete is refused while open so callers know stale entries may survive
// until their TTL.
func (g *Guarded) Delete(ctx context.Context, keys ...string) error {
	if !g.breaker.Allow() {
		return ErrCircuitOpen
	}
	err := g.next.Delete(ctx, keys...)
	g.record(ctx, err)
	return err
}

func (g *Guarded) record(ctx context.Context, err error) {
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "cache circuit opened", "cache", g.breaker.Name(), "error", err)
		}
		return
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "cache circuit closed", "cache", g.breaker.Name())
	}
}

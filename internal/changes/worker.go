package changes

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Worker moves changes from the outbox to the publisher.
type Worker struct {
	source    Source
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewWorker(source Source, publisher Publisher, interval time.Duration, batchSize int, logger *slog.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		source:    source,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run flushes the outbox every interval until ctx is cancelled. Publish
// failures are logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.Flush(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "outbox flush failed", "error", err, "published", n)
				continue
			}
			if n > 0 {
				w.logger.DebugContext(ctx, "outbox flushed", "published", n)
			}
		}
	}
}

// Flush publishes batches until the outbox has no pending changes and
// returns how many were published.
func (w *Worker) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.source.Drain(ctx, w.batchSize, w.publisher.Publish)
		total += n
		if err != nil {
			return total, fmt.Errorf("drain outbox: %w", err)
		}
		if n < w.batchSize {
			return total, nil
		}
	}
}

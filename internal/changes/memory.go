package changes

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryOutbox is an in-process Recorder and Source. Published changes are
// dropped, so it only holds what is still pending.
type MemoryOutbox struct {
	// draining serializes Drain; mu guards entries and is never held while
	// a batch is being published.
	draining sync.Mutex
	mu       sync.Mutex
	entries  []Change
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (m *MemoryOutbox) Record(_ context.Context, change Change) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, change)
	return nil
}

func (m *MemoryOutbox) Drain(ctx context.Context, limit int, fn func(ctx context.Context, batch []Change) error) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	m.draining.Lock()
	defer m.draining.Unlock()

	m.mu.Lock()
	batch := slices.Clone(m.entries[:min(limit, len(m.entries))])
	m.mu.Unlock()
	if len(batch) == 0 {
		return 0, nil
	}

	if err := fn(ctx, batch); err != nil {
		return 0, err
	}

	// Record only appends, so the batch is still the head of entries.
	m.mu.Lock()
	m.entries = slices.Clone(m.entries[len(batch):])
	m.mu.Unlock()
	return len(batch), nil
}

// Changes returns the unpublished changes in order.
func (m *MemoryOutbox) Changes() []Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Pending returns the number of unpublished changes.
func (m *MemoryOutbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

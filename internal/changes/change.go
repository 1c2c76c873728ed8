// Package changes records entity mutations in a transactional outbox and
// publishes them to Kafka.
//
// Services call Recorder.Record inside the write transaction so a change is
// stored if and only if the mutation commits. The Worker drains unpublished
// changes in batches and hands them to a Publisher; delivery is at least once.
package changes

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of mutation a change describes.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Change is one committed mutation of a reference record. Payload is the wire
// representation of the record after the mutation (before it, for deletes).
type Change struct {
	ID         uuid.UUID       `json:"id"`
	Entity     string          `json:"entity"`
	EntityID   uuid.UUID       `json:"entityId"`
	Action     Action          `json:"action"`
	OccurredAt time.Time       `json:"occurredAt"`
	RequestID  string          `json:"requestId,omitempty"`
	Subject    string          `json:"subject,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// Recorder stores a change alongside the mutation that caused it.
type Recorder interface {
	Record(ctx context.Context, change Change) error
}

// Source hands out unpublished changes. fn runs while the batch is held;
// the batch is marked published only when fn succeeds.
type Source interface {
	Drain(ctx context.Context, limit int, fn func(ctx context.Context, batch []Change) error) (int, error)
}

// Publisher delivers a batch of changes downstream.
type Publisher interface {
	Publish(ctx context.Context, batch []Change) error
}

// Discard drops every change. Used when no broker is configured.
type Discard struct{}

func (Discard) Record(context.Context, Change) error { return nil }

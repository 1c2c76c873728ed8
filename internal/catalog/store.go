package catalog

import (
	"context"

	"github.com/google/uuid"

	"refdata/internal/query"
)

// Store persists records of one entity. Lookups of absent records return
// sentinel.ErrNotFound; natural key collisions return sentinel.ErrConflict;
// foreign key violations return sentinel.ErrInvalidState.
type Store[R any] interface {
	query.Source[R]
	// Insert stores r. A zero ID is assigned by the store; a set one is kept.
	Insert(ctx context.Context, r *R) error
	// Update replaces every column of the record with r's ID.
	Update(ctx context.Context, r *R) error
	// Delete removes the record and returns it as it was.
	Delete(ctx context.Context, id uuid.UUID) (*R, error)
	FindByID(ctx context.Context, id uuid.UUID) (*R, error)
	// FindByIDs returns the records that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*R, error)
	FindByCode(ctx context.Context, code string) (*R, error)
}

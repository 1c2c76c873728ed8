// Package hierarchy resolves one-hop parent links of self-referencing
// entities and guards parent writes against cycles.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"refdata/internal/query"
	dErrors "refdata/pkg/domain-errors"
)

// MaxDepth bounds the parent chain walked when checking a new parent.
const MaxDepth = 64

// FindByIDs loads the records with the given ids. Missing ids are skipped.
type FindByIDs[T any] func(ctx context.Context, ids []uuid.UUID) ([]*T, error)

// Resolver resolves the immediate parent of records of one entity.
type Resolver[T any] struct {
	field    string
	find     FindByIDs[T]
	idOf     func(*T) uuid.UUID
	parentOf func(*T) *uuid.UUID
}

// NewResolver builds a resolver. field is the wire name of the parent key and
// is used for children listings and validation messages.
func NewResolver[T any](field string, find func(ctx context.Context, ids []uuid.UUID) ([]*T, error), idOf func(*T) uuid.UUID, parentOf func(*T) *uuid.UUID) *Resolver[T] {
	return &Resolver[T]{field: field, find: find, idOf: idOf, parentOf: parentOf}
}

// Field is the wire name of the parent key.
func (r *Resolver[T]) Field() string {
	return r.field
}

// ParentID returns the parent key of item.
func (r *Resolver[T]) ParentID(item *T) *uuid.UUID {
	return r.parentOf(item)
}

// Parent returns the immediate parent of item, or nil when the parent key is
// unset or dangling. It performs at most one lookup.
func (r *Resolver[T]) Parent(ctx context.Context, item *T) (*T, error) {
	pid := r.parentOf(item)
	if pid == nil {
		return nil, nil
	}
	found, err := r.find(ctx, []uuid.UUID{*pid})
	if err != nil {
		return nil, fmt.Errorf("resolve parent %s: %w", pid, err)
	}
	for _, p := range found {
		if r.idOf(p) == *pid {
			return p, nil
		}
	}
	return nil, nil
}

// Parents resolves the parents of a page of items with one batched lookup,
// keyed by parent id.
func (r *Resolver[T]) Parents(ctx context.Context, items []*T) (map[uuid.UUID]*T, error) {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		pid := r.parentOf(item)
		if pid == nil {
			continue
		}
		if _, dup := seen[*pid]; dup {
			continue
		}
		seen[*pid] = struct{}{}
		ids = append(ids, *pid)
	}
	out := make(map[uuid.UUID]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := r.find(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve parents: %w", err)
	}
	for _, p := range found {
		out[r.idOf(p)] = p
	}
	return out, nil
}

// CheckParent validates that id may point at parentID. id is uuid.Nil for
// records that do not exist yet. A nil parentID is always accepted.
func (r *Resolver[T]) CheckParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return r.invalid("must not reference the record itself")
	}

	current := *parentID
	for depth := 0; ; depth++ {
		if depth >= MaxDepth {
			return r.invalid(fmt.Sprintf("hierarchy must not be deeper than %d levels", MaxDepth))
		}
		found, err := r.find(ctx, []uuid.UUID{current})
		if err != nil {
			return fmt.Errorf("walk parent chain: %w", err)
		}
		var node *T
		for _, f := range found {
			if r.idOf(f) == current {
				node = f
				break
			}
		}
		if node == nil {
			if depth == 0 {
				return r.invalid("parent does not exist")
			}
			return nil
		}
		next := r.parentOf(node)
		if next == nil {
			return nil
		}
		if id != uuid.Nil && *next == id {
			return r.invalid("would create a cycle")
		}
		current = *next
	}
}

func (r *Resolver[T]) invalid(msg string) error {
	return dErrors.Validation("invalid parent", map[string]string{r.field: msg})
}

// ChildrenOf is the condition selecting the immediate children of id.
func ChildrenOf(field string, id uuid.UUID) query.Condition {
	return query.Eq(field, id.String())
}

package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"refdata/internal/query"
	"refdata/pkg/platform/sentinel"
)

// InMemory is a Store backed by a map. It enforces natural key uniqueness,
// refuses to delete records that still have children and, once linked with
// Refer, checks references to other stores like the PostgreSQL foreign keys.
type InMemory[R any] struct {
	mu     *sync.RWMutex
	rows   map[uuid.UUID]*R
	schema *query.Schema[R]
	meta   func(*R) *Base
	code   func(*R) string
	parent *ParentRef[R]
	name   string

	// Both run with mu held.
	refs      []func(*R) error
	referrers []func(uuid.UUID) bool
}

func NewInMemory[R, D any](def Definition[R, D]) *InMemory[R] {
	return NewSharedInMemory(def, new(sync.RWMutex))
}

// NewSharedInMemory builds a store guarded by mu. Stores linked with Refer
// must share the same lock.
func NewSharedInMemory[R, D any](def Definition[R, D], mu *sync.RWMutex) *InMemory[R] {
	return &InMemory[R]{
		mu:     mu,
		rows:   make(map[uuid.UUID]*R),
		schema: def.Schema,
		meta:   def.Meta,
		code:   def.Code,
		parent: def.Parent,
		name:   def.Table.Name,
	}
}

// Refer links field of from to the rows of to: from rejects rows pointing at
// a missing id and to refuses to delete rows from still points at. Both
// failures wrap sentinel.ErrInvalidState, as a foreign key violation does.
func Refer[R, T any](from *InMemory[R], field string, get func(*R) *uuid.UUID, to *InMemory[T]) {
	if from.mu != to.mu {
		panic("catalog: " + from.name + " and " + to.name + " do not share a lock")
	}
	from.refs = append(from.refs, func(r *R) error {
		id := get(r)
		if id == nil {
			return nil
		}
		if _, ok := to.rows[*id]; !ok {
			return fmt.Errorf("%s.%s: %s %s does not exist: %w", from.name, field, to.name, *id, sentinel.ErrInvalidState)
		}
		return nil
	})
	to.referrers = append(to.referrers, func(id uuid.UUID) bool {
		for _, r := range from.rows {
			if ref := get(r); ref != nil && *ref == id {
				return true
			}
		}
		return false
	})
}

func (s *InMemory[R]) checkRefs(r *R) error {
	for _, check := range s.refs {
		if err := check(r); err != nil {
			return err
		}
	}
	return nil
}

func clone[R any](r *R) *R {
	c := *r
	return &c
}

func (s *InMemory[R]) codeTaken(code string, except uuid.UUID) bool {
	for id, r := range s.rows {
		if id != except && s.code(r) == code {
			return true
		}
	}
	return false
}

func (s *InMemory[R]) Insert(_ context.Context, r *R) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTaken(s.code(r), uuid.Nil) {
		return fmt.Errorf("insert %s: %w", s.name, sentinel.ErrConflict)
	}
	if err := s.checkRefs(r); err != nil {
		return fmt.Errorf("insert %w", err)
	}
	m := s.meta(r)
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	} else if _, taken := s.rows[m.ID]; taken {
		return fmt.Errorf("insert %s %s: %w", s.name, m.ID, sentinel.ErrConflict)
	}
	s.rows[m.ID] = clone(r)
	return nil
}

func (s *InMemory[R]) Update(_ context.Context, r *R) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.meta(r).ID
	if _, ok := s.rows[id]; !ok {
		return fmt.Errorf("update %s %s: %w", s.name, id, sentinel.ErrNotFound)
	}
	if s.codeTaken(s.code(r), id) {
		return fmt.Errorf("update %s: %w", s.name, sentinel.ErrConflict)
	}
	if err := s.checkRefs(r); err != nil {
		return fmt.Errorf("update %w", err)
	}
	s.rows[id] = clone(r)
	return nil
}

func (s *InMemory[R]) Delete(_ context.Context, id uuid.UUID) (*R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("delete %s %s: %w", s.name, id, sentinel.ErrNotFound)
	}
	if s.parent != nil {
		for _, other := range s.rows {
			if pid := s.parent.Get(other); pid != nil && *pid == id {
				return nil, fmt.Errorf("delete %s %s: still has children: %w", s.name, id, sentinel.ErrInvalidState)
			}
		}
	}
	for _, referenced := range s.referrers {
		if referenced(id) {
			return nil, fmt.Errorf("delete %s %s: still referenced: %w", s.name, id, sentinel.ErrInvalidState)
		}
	}
	delete(s.rows, id)
	return r, nil
}

func (s *InMemory[R]) FindByID(_ context.Context, id uuid.UUID) (*R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("find %s %s: %w", s.name, id, sentinel.ErrNotFound)
	}
	return clone(r), nil
}

func (s *InMemory[R]) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*R, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.rows[id]; ok {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (s *InMemory[R]) FindByCode(_ context.Context, code string) (*R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rows {
		if s.code(r) == code {
			return clone(r), nil
		}
	}
	return nil, fmt.Errorf("find %s by code %q: %w", s.name, code, sentinel.ErrNotFound)
}

func (s *InMemory[R]) Count(_ context.Context, preds []query.Predicate) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.rows {
		if s.schema.Match(preds, r) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory[R]) Fetch(_ context.Context, q query.Query) ([]*R, error) {
	s.mu.RLock()
	matched := make([]*R, 0, len(s.rows))
	for _, r := range s.rows {
		if s.schema.Match(q.Predicates, r) {
			matched = append(matched, clone(r))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *R) int {
		switch {
		case s.schema.Less(q.Order, a, b):
			return -1
		case s.schema.Less(q.Order, b, a):
			return 1
		}
		return 0
	})
	if q.Offset >= int64(len(matched)) {
		return []*R{}, nil
	}
	end := min(q.Offset+int64(q.Limit), int64(len(matched)))
	return matched[q.Offset:end], nil
}

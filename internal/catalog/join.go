package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"refdata/internal/hierarchy"
)

// Join attaches related data to mapped DTOs. records[i] is the source of
// dtos[i]. A join must only write fields no other join writes.
type Join[R, D any] func(ctx context.Context, records []*R, dtos []*D) error

// Embed attaches records of another entity, looked up with one batched call
// per page. key returns the reference held by a record; nil skips it, as
// does a reference to a record that no longer exists.
func Embed[R, D, TR, TD any](
	find func(ctx context.Context, ids []uuid.UUID) ([]*TR, error),
	target Definition[TR, TD],
	key func(*R) *uuid.UUID,
	attach func(dto *D, related *TD),
) Join[R, D] {
	return func(ctx context.Context, records []*R, dtos []*D) error {
		seen := make(map[uuid.UUID]struct{}, len(records))
		ids := make([]uuid.UUID, 0, len(records))
		for _, r := range records {
			if k := key(r); k != nil {
				if _, dup := seen[*k]; !dup {
					seen[*k] = struct{}{}
					ids = append(ids, *k)
				}
			}
		}
		if len(ids) == 0 {
			return nil
		}
		found, err := find(ctx, ids)
		if err != nil {
			return fmt.Errorf("embed %s: %w", target.Name, err)
		}
		byID := make(map[uuid.UUID]*TR, len(found))
		for _, f := range found {
			byID[target.ID(f)] = f
		}
		for i, r := range records {
			k := key(r)
			if k == nil {
				continue
			}
			related, ok := byID[*k]
			if !ok {
				continue
			}
			dto, err := target.Mapper.ToDTO(related)
			if err != nil {
				return fmt.Errorf("embed %s: %w", target.Name, err)
			}
			attach(dtos[i], dto)
		}
		return nil
	}
}

// EmbedParent attaches the immediate parent of each record, mapped to its
// wire shape. Records without a parent key get nothing attached.
func EmbedParent[R, D any](resolver *hierarchy.Resolver[R], mapper Mapper[R, D], attach func(dto *D, parent *D)) Join[R, D] {
	return func(ctx context.Context, records []*R, dtos []*D) error {
		parents, err := resolver.Parents(ctx, records)
		if err != nil {
			return err
		}
		for i, r := range records {
			pid := resolver.ParentID(r)
			if pid == nil {
				continue
			}
			p, ok := parents[*pid]
			if !ok {
				continue
			}
			dto, err := mapper.ToDTO(p)
			if err != nil {
				return fmt.Errorf("embed parent: %w", err)
			}
			attach(dtos[i], dto)
		}
		return nil
	}
}

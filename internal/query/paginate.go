// Package query is the pagination and filter engine shared by every entity.
//
// A FilterRequest is compiled against an entity Schema into a Query whose
// predicates are rendered to SQL by Where/OrderBy or evaluated in memory by
// Schema.Match/Schema.Less. Paginate runs the count and the page fetch with
// the same predicates and assembles the Page envelope.
package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"refdata/pkg/platform/tx"
)

// Source is a store that can count and fetch compiled queries.
type Source[T any] interface {
	Count(ctx context.Context, preds []Predicate) (int64, error)
	Fetch(ctx context.Context, q Query) ([]*T, error)
}

// Paginate compiles req and returns one page of results from src. Count and
// fetch run concurrently unless a transaction is bound to ctx, since a single
// connection cannot serve two queries at once.
func Paginate[T any](ctx context.Context, src Source[T], schema *Schema[T], req FilterRequest) (Page[*T], error) {
	q, err := schema.Compile(req)
	if err != nil {
		return Page[*T]{}, err
	}

	var (
		total int64
		items []*T
	)
	count := func(ctx context.Context) error {
		n, err := src.Count(ctx, q.Predicates)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		total = n
		return nil
	}
	fetch := func(ctx context.Context) error {
		rows, err := src.Fetch(ctx, q)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		items = rows
		return nil
	}

	if _, inTx := tx.From(ctx); inTx {
		if err := count(ctx); err != nil {
			return Page[*T]{}, err
		}
		if err := fetch(ctx); err != nil {
			return Page[*T]{}, err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return count(gctx) })
		g.Go(func() error { return fetch(gctx) })
		if err := g.Wait(); err != nil {
			return Page[*T]{}, err
		}
	}

	return NewPage(items, total, q.Page, q.Limit), nil
}

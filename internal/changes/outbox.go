package changes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	txcontext "refdata/pkg/platform/tx"
)

// Outbox persists changes in the outbox table.
type Outbox struct {
	db *sql.DB
}

// NewOutbox creates a PostgreSQL outbox.
func NewOutbox(db *sql.DB) *Outbox {
	return &Outbox{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (o *Outbox) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return o.db
}

// Record inserts the change using the transaction bound to ctx, if any.
func (o *Outbox) Record(ctx context.Context, change Change) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	if len(change.Payload) == 0 {
		change.Payload = []byte("null")
	}
	query := `
		INSERT INTO outbox (outbox_id, entity, entity_id, action, occurred_at, request_id, subject, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := o.execer(ctx).ExecContext(ctx, query,
		change.ID,
		change.Entity,
		change.EntityID,
		string(change.Action),
		change.OccurredAt,
		change.RequestID,
		change.Subject,
		string(change.Payload),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Drain locks up to limit unpublished changes, oldest first, and marks them
// published once fn accepts them. Concurrent workers skip each other's rows.
func (o *Outbox) Drain(ctx context.Context, limit int, fn func(ctx context.Context, batch []Change) error) (n int, err error) {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox drain: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT outbox_id, entity, entity_id, action, occurred_at, request_id, subject, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at, outbox_id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("select outbox entries: %w", err)
	}
	batch, err := scanChanges(rows)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, tx.Commit()
	}

	if err := fn(txcontext.WithTx(ctx, tx), batch); err != nil {
		return 0, err
	}

	ids := make([]string, len(batch))
	for i, c := range batch {
		ids[i] = c.ID.String()
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE outbox_id = ANY($2)`,
		time.Now(), pq.Array(ids),
	); err != nil {
		return 0, fmt.Errorf("mark outbox entries published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox drain: %w", err)
	}
	return len(batch), nil
}

// Purge deletes published changes older than cutoff.
func (o *Outbox) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := o.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return res.RowsAffected()
}

func scanChanges(rows *sql.Rows) ([]Change, error) {
	defer rows.Close()
	var out []Change
	for rows.Next() {
		var (
			c       Change
			action  string
			payload string
		)
		if err := rows.Scan(&c.ID, &c.Entity, &c.EntityID, &action, &c.OccurredAt, &c.RequestID, &c.Subject, &payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		c.Action = Action(action)
		c.Payload = []byte(payload)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return out, nil
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"refdata/internal/query"
	"refdata/pkg/platform/sentinel"
	txcontext "refdata/pkg/platform/tx"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists records of one entity in PostgreSQL.
type PostgresStore[R any] struct {
	db      *sql.DB
	table   Table[R]
	meta    func(*R) *Base
	columns string
}

// NewPostgres constructs a PostgreSQL-backed store for def.
func NewPostgres[R, D any](db *sql.DB, def Definition[R, D]) *PostgresStore[R] {
	t := def.Table
	cols := append([]string{t.IDColumn, "status", "date_created", "date_updated"}, t.Columns...)
	return &PostgresStore[R]{
		db:      db,
		table:   t,
		meta:    def.Meta,
		columns: strings.Join(cols, ", "),
	}
}

func (s *PostgresStore[R]) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore[R]) targets(r *R) []any {
	m := s.meta(r)
	return append([]any{&m.ID, &m.Status, &m.DateCreated, &m.DateUpdated}, s.table.Targets(r)...)
}

func (s *PostgresStore[R]) scanOne(row interface{ Scan(...any) error }) (*R, error) {
	r := new(R)
	if err := row.Scan(s.targets(r)...); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore[R]) scanAll(rows *sql.Rows) ([]*R, error) {
	defer rows.Close()
	var out []*R
	for rows.Next() {
		r, err := s.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table.Name, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table.Name, err)
	}
	return out, nil
}

func (s *PostgresStore[R]) Insert(ctx context.Context, r *R) error {
	m := s.meta(r)
	cols := append([]string{"status", "date_created", "date_updated"}, s.table.Columns...)
	args := append([]any{m.Status, m.DateCreated, m.DateUpdated}, s.table.Values(r)...)
	if m.ID != uuid.Nil {
		cols = append([]string{s.table.IDColumn}, cols...)
		args = append([]any{m.ID}, args...)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		s.table.Name, strings.Join(cols, ", "), placeholders(1, len(args)), s.table.IDColumn)
	if err := s.execer(ctx).QueryRowContext(ctx, query, args...).Scan(&m.ID); err != nil {
		return s.translate("insert", err)
	}
	return nil
}

func (s *PostgresStore[R]) Update(ctx context.Context, r *R) error {
	m := s.meta(r)
	cols := append([]string{"status", "date_created", "date_updated"}, s.table.Columns...)
	args := append([]any{m.Status, m.DateCreated, m.DateUpdated}, s.table.Values(r)...)

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	args = append(args, m.ID)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		s.table.Name, strings.Join(sets, ", "), s.table.IDColumn, len(args))

	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return s.translate("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", s.table.Name, m.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore[R]) Delete(ctx context.Context, id uuid.UUID) (*R, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`, s.table.Name, s.table.IDColumn, s.columns)
	r, err := s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, s.translate("delete", err)
	}
	return r, nil
}

func (s *PostgresStore[R]) FindByID(ctx context.Context, id uuid.UUID) (*R, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, s.columns, s.table.Name, s.table.IDColumn)
	r, err := s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, s.translate("find by id", err)
	}
	return r, nil
}

func (s *PostgresStore[R]) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*R, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`, s.columns, s.table.Name, s.table.IDColumn)
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, s.translate("find by ids", err)
	}
	return s.scanAll(rows)
}

func (s *PostgresStore[R]) FindByCode(ctx context.Context, code string) (*R, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, s.columns, s.table.Name, s.table.CodeColumn)
	r, err := s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, s.translate("find by code", err)
	}
	return r, nil
}

func (s *PostgresStore[R]) Count(ctx context.Context, preds []query.Predicate) (int64, error) {
	where, args := query.Where(preds, 1)
	q := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, s.table.Name, where)
	var n int64
	if err := s.execer(ctx).QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, s.translate("count", err)
	}
	return n, nil
}

func (s *PostgresStore[R]) Fetch(ctx context.Context, q query.Query) ([]*R, error) {
	where, args := query.Where(q.Predicates, 1)
	stmt := fmt.Sprintf(`SELECT %s FROM %s WHERE %s`, s.columns, s.table.Name, where)
	if order := query.OrderBy(q.Order); order != "" {
		stmt += " ORDER BY " + order
	}
	stmt += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.execer(ctx).QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.translate("fetch", err)
	}
	return s.scanAll(rows)
}

// translate maps driver errors onto sentinel errors, keeping the cause.
func (s *PostgresStore[R]) translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, s.table.Name, sentinel.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s %s: %w: %w", op, s.table.Name, sentinel.ErrConflict, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s %s: %w: %w", op, s.table.Name, sentinel.ErrInvalidState, err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, s.table.Name, err)
}

func placeholders(start, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ph, ", ")
}

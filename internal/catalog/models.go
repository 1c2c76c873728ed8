// Package catalog is the generic CRUD layer shared by every reference entity.
//
// A Definition describes one entity: its table, query schema, storage/wire
// mapper and optional hierarchy and scoped listings. Service orchestrates
// reads and writes over a Store, Handler exposes the REST surface.
package catalog

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"

	"refdata/internal/query"
)

// Status is the lifecycle flag of a record, stored as the record_status enum.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	var v string
	switch t := src.(type) {
	case string:
		v = t
	case []byte:
		v = string(t)
	default:
		return fmt.Errorf("scan status: unsupported type %T", src)
	}
	if !Status(v).IsValid() {
		return fmt.Errorf("scan status: unknown value %q", v)
	}
	*s = Status(v)
	return nil
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid status %q", s)
	}
	return string(s), nil
}

// Base holds the columns every reference table shares. ID and the audit
// timestamps are owned by the service; client-supplied values are ignored.
type Base struct {
	ID          uuid.UUID `json:"id"`
	Status      Status    `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// BaseFields are the query fields for the Base columns of R.
func BaseFields[R any](idColumn string, meta func(*R) *Base) []query.Field[R] {
	return []query.Field[R]{
		query.UUID(query.IDField, idColumn, func(r *R) uuid.UUID { return meta(r).ID }),
		query.Enum("status", "status", []string{string(StatusActive), string(StatusInactive)},
			func(r *R) string { return string(meta(r).Status) }),
		query.Time("dateCreated", "date_created", func(r *R) time.Time { return meta(r).DateCreated }),
		query.Time("dateUpdated", "date_updated", func(r *R) time.Time { return meta(r).DateUpdated }),
	}
}

// NewSchema builds a query schema with the Base fields followed by fields.
func NewSchema[R any](idColumn string, meta func(*R) *Base, defaultSort []query.Sort, fields ...query.Field[R]) *query.Schema[R] {
	all := append(BaseFields(idColumn, meta), fields...)
	return query.NewSchema(defaultSort, all...)
}

// Mapper converts between the storage shape R and the wire shape D. Both
// directions are pure; related records are attached by joins.
type Mapper[R, D any] struct {
	ToDTO    func(*R) (*D, error)
	ToRecord func(*D) (*R, error)
}

// Identity is the mapper for entities whose storage and wire shapes match.
// strip clears wire-only fields, such as embedded related records, from
// incoming payloads.
func Identity[T any](strip ...func(*T)) Mapper[T, T] {
	return Mapper[T, T]{
		ToDTO: func(t *T) (*T, error) {
			c := *t
			return &c, nil
		},
		ToRecord: func(t *T) (*T, error) {
			c := *t
			for _, fn := range strip {
				fn(&c)
			}
			return &c, nil
		},
	}
}

// Table describes the entity-specific columns of R. The Base columns
// (id column, status, date_created, date_updated) are implied.
type Table[R any] struct {
	Name       string
	IDColumn   string
	CodeColumn string
	Columns    []string
	// Values returns the column values of r in Columns order.
	Values func(r *R) []any
	// Targets returns scan destinations in Columns order.
	Targets func(r *R) []any
}

// ParentRef marks an entity as self-referencing.
type ParentRef[R any] struct {
	// Field is the wire name of the parent key.
	Field string
	Get   func(*R) *uuid.UUID
}

// Scope is a listing narrowed by one field, served at GET /<Path>/{value}.
type Scope struct {
	Path  string
	Field string
}

// Definition is everything the catalog needs to serve one entity.
type Definition[R, D any] struct {
	// Name is the route segment and metric label, e.g. "countries".
	Name string
	// CodeField is the wire name of the natural key.
	CodeField string
	Table     Table[R]
	Schema    *query.Schema[R]
	Mapper    Mapper[R, D]
	Meta      func(*R) *Base
	Code      func(*R) string
	Parent    *ParentRef[R]
	Scopes    []Scope
}

// Hierarchical reports whether records of the entity have a parent key.
func (d Definition[R, D]) Hierarchical() bool {
	return d.Parent != nil
}

// ID returns the identifier of r.
func (d Definition[R, D]) ID(r *R) uuid.UUID {
	return d.Meta(r).ID
}

// Scope looks up a scoped listing by route path.
func (d Definition[R, D]) Scope(path string) (Scope, bool) {
	for _, s := range d.Scopes {
		if s.Path == path {
			return s, true
		}
	}
	return Scope{}, false
}

package reference

import (
	"database/sql"

	"github.com/google/uuid"

	"refdata/internal/catalog"
	"refdata/internal/query"
)

// column binds one table column to its wire field, its insert value and its
// scan target.
type column[R any] struct {
	name   string
	column string
	// field is nil for columns that cannot be filtered or sorted on.
	field  *query.Field[R]
	value  func(*R) any
	target func(*R) any
	ref    func(*R) *uuid.UUID
}

func filterable[R any](f query.Field[R], value, target func(*R) any) column[R] {
	return column[R]{name: f.Name, column: f.Column, field: &f, value: value, target: target}
}

func text[R any](name, col string, p func(*R) *string) column[R] {
	return filterable(query.String(name, col, func(r *R) string { return *p(r) }),
		func(r *R) any { return *p(r) },
		func(r *R) any { return p(r) })
}

func integer[R any](name, col string, p func(*R) *int) column[R] {
	return filterable(query.Int(name, col, func(r *R) int64 { return int64(*p(r)) }),
		func(r *R) any { return *p(r) },
		func(r *R) any { return p(r) })
}

func boolean[R any](name, col string, p func(*R) *bool) column[R] {
	return filterable(query.Bool(name, col, func(r *R) bool { return *p(r) }),
		func(r *R) any { return *p(r) },
		func(r *R) any { return p(r) })
}

// foreignKey is a nullable reference to another row.
func foreignKey[R any](name, col string, p func(*R) **uuid.UUID) column[R] {
	c := filterable(query.OptionalUUID(name, col, func(r *R) *uuid.UUID { return *p(r) }),
		func(r *R) any { return *p(r) },
		func(r *R) any { return p(r) })
	c.ref = func(r *R) *uuid.UUID { return *p(r) }
	return c
}

// requiredForeignKey is a NOT NULL reference to another row.
func requiredForeignKey[R any](name, col string, p func(*R) *uuid.UUID) column[R] {
	c := filterable(query.UUID(name, col, func(r *R) uuid.UUID { return *p(r) }),
		func(r *R) any { return *p(r) },
		func(r *R) any { return p(r) })
	c.ref = func(r *R) *uuid.UUID { return p(r) }
	return c
}

// enum is a text column restricted to values; an empty string means unset.
func enum[R any](name, col string, values []string, p func(*R) *string) column[R] {
	return filterable(query.Enum(name, col, values, func(r *R) string { return *p(r) }),
		func(r *R) any { return *p(r) },
		func(r *R) any { return p(r) })
}

func regionColumn[R any](name, col string, p func(*R) *Region) column[R] {
	return filterable(query.Enum(name, col, regionCodes, func(r *R) string { return string(*p(r)) }),
		func(r *R) any { return *p(r) },
		func(r *R) any { return p(r) })
}

// attributes is a JSON text column; it is stored but not queryable.
func attributes[R any](name, col string, p func(*R) *sql.NullString) column[R] {
	return column[R]{
		name:   name,
		column: col,
		value:  func(r *R) any { return *p(r) },
		target: func(r *R) any { return p(r) },
	}
}

// entity describes one reference table.
type entity[R any] struct {
	Name       string
	Table      string
	IDColumn   string
	Meta       func(*R) *catalog.Base
	CodeField  string
	CodeColumn string
	Code       func(*R) *string
	Columns    []column[R]
	// SortField overrides the default sort, which is by natural key.
	SortField string
	// ParentField names the reference column pointing at the same table.
	ParentField string
	Scopes      []catalog.Scope
}

// definition assembles the catalog definition of e served through mapper.
func definition[R, D any](e entity[R], mapper catalog.Mapper[R, D]) catalog.Definition[R, D] {
	cols := append([]column[R]{text(e.CodeField, e.CodeColumn, e.Code)}, e.Columns...)

	names := make([]string, len(cols))
	fields := make([]query.Field[R], 0, len(cols))
	var parent *catalog.ParentRef[R]
	for i, c := range cols {
		names[i] = c.column
		if c.field != nil {
			fields = append(fields, *c.field)
		}
		if e.ParentField != "" && c.name == e.ParentField {
			parent = &catalog.ParentRef[R]{Field: c.name, Get: c.ref}
		}
	}
	if e.ParentField != "" && parent == nil {
		panic("reference: " + e.Name + " has no column " + e.ParentField)
	}

	sortField := e.SortField
	if sortField == "" {
		sortField = e.CodeField
	}

	return catalog.Definition[R, D]{
		Name:      e.Name,
		CodeField: e.CodeField,
		Table: catalog.Table[R]{
			Name:       e.Table,
			IDColumn:   e.IDColumn,
			CodeColumn: e.CodeColumn,
			Columns:    names,
			Values: func(r *R) []any {
				out := make([]any, len(cols))
				for i, c := range cols {
					out[i] = c.value(r)
				}
				return out
			},
			Targets: func(r *R) []any {
				out := make([]any, len(cols))
				for i, c := range cols {
					out[i] = c.target(r)
				}
				return out
			},
		},
		Schema: catalog.NewSchema(e.IDColumn, e.Meta,
			[]query.Sort{{Field: sortField, Direction: query.ASC}}, fields...),
		Mapper: mapper,
		Meta:   e.Meta,
		Code:   func(r *R) string { return *e.Code(r) },
		Parent: parent,
		Scopes: e.Scopes,
	}
}

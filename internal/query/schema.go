package query

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dErrors "refdata/pkg/domain-errors"
)

// Field maps a wire field name to its column and value accessor. Value
// returns nil for a NULL column.
type Field[T any] struct {
	Name   string
	Column string
	Kind   Kind
	Value  func(*T) any
	// Values, when set, is the closed set of accepted string values.
	Values []string
}

func String[T any](name, column string, get func(*T) string) Field[T] {
	return Field[T]{Name: name, Column: column, Kind: KindString, Value: func(t *T) any { return get(t) }}
}

func Int[T any](name, column string, get func(*T) int64) Field[T] {
	return Field[T]{Name: name, Column: column, Kind: KindInt, Value: func(t *T) any { return get(t) }}
}

func Bool[T any](name, column string, get func(*T) bool) Field[T] {
	return Field[T]{Name: name, Column: column, Kind: KindBool, Value: func(t *T) any { return get(t) }}
}

func Time[T any](name, column string, get func(*T) time.Time) Field[T] {
	return Field[T]{Name: name, Column: column, Kind: KindTime, Value: func(t *T) any { return get(t) }}
}

func UUID[T any](name, column string, get func(*T) uuid.UUID) Field[T] {
	return Field[T]{Name: name, Column: column, Kind: KindUUID, Value: func(t *T) any { return get(t) }}
}

// Enum is a string field restricted to values. It supports equality, "in"
// and null checks only.
func Enum[T any](name, column string, values []string, get func(*T) string) Field[T] {
	f := String(name, column, get)
	f.Values = values
	return f
}

// OptionalUUID is a nullable reference such as a parent key.
func OptionalUUID[T any](name, column string, get func(*T) *uuid.UUID) Field[T] {
	return Field[T]{Name: name, Column: column, Kind: KindUUID, Value: func(t *T) any {
		if id := get(t); id != nil {
			return *id
		}
		return nil
	}}
}

// IDField is the wire name every schema uses for its identifier. Compiled
// queries are always ordered by it last so paging is stable.
const IDField = "id"

// Schema is the ordered set of filterable and sortable fields of an entity.
type Schema[T any] struct {
	fields      []Field[T]
	byName      map[string]int
	defaultSort []Sort
}

// NewSchema builds a schema. Duplicate field names panic since schemas are
// declared once at package init.
func NewSchema[T any](defaultSort []Sort, fields ...Field[T]) *Schema[T] {
	s := &Schema[T]{
		fields:      fields,
		byName:      make(map[string]int, len(fields)),
		defaultSort: defaultSort,
	}
	for i, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			panic(fmt.Sprintf("query: duplicate field %q", f.Name))
		}
		s.byName[f.Name] = i
	}
	return s
}

// Field looks a field up by wire name.
func (s *Schema[T]) Field(name string) (Field[T], bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field[T]{}, false
	}
	return s.fields[i], true
}

// Fields returns the schema fields in declaration order.
func (s *Schema[T]) Fields() []Field[T] {
	return s.fields
}

// Predicate is a compiled condition with a typed value.
type Predicate struct {
	Field    string
	Column   string
	Kind     Kind
	Operator Operator
	Value    any
}

// Order is a compiled sort key.
type Order struct {
	Field     string
	Column    string
	Direction Direction
}

// Query is a validated filter request ready for a Source.
type Query struct {
	Predicates []Predicate
	Order      []Order
	Offset     int64
	Limit      int
	Page       int
}

// Compile validates req against the schema and converts filter values to
// their typed form. Every problem is reported as a field message.
func (s *Schema[T]) Compile(req FilterRequest) (Query, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return Query{}, err
	}

	problems := map[string]string{}
	preds := make([]Predicate, 0, len(req.Filters))
	for i, c := range req.Filters {
		p, err := s.predicate(c)
		if err != nil {
			problems[fmt.Sprintf("filters[%d]", i)] = err.Error()
			continue
		}
		preds = append(preds, p)
	}

	sorts := req.Sort
	if len(sorts) == 0 {
		sorts = s.defaultSort
	}
	orders := make([]Order, 0, len(sorts)+1)
	hasID := false
	for i, so := range sorts {
		f, ok := s.Field(so.Field)
		if !ok {
			problems[fmt.Sprintf("sort[%d]", i)] = fmt.Sprintf("unknown field %q", so.Field)
			continue
		}
		dir := so.Direction
		if dir == "" {
			dir = ASC
		}
		hasID = hasID || f.Name == IDField
		orders = append(orders, Order{Field: f.Name, Column: f.Column, Direction: dir})
	}
	if len(problems) > 0 {
		return Query{}, dErrors.Validation("invalid query", problems)
	}
	if id, ok := s.Field(IDField); ok && !hasID {
		orders = append(orders, Order{Field: id.Name, Column: id.Column, Direction: ASC})
	}

	return Query{
		Predicates: preds,
		Order:      orders,
		Offset:     req.Offset(),
		Limit:      req.Size,
		Page:       req.Page,
	}, nil
}

func (s *Schema[T]) predicate(c Condition) (Predicate, error) {
	f, ok := s.Field(c.Field)
	if !ok {
		return Predicate{}, fmt.Errorf("unknown field %q", c.Field)
	}
	if !knownOperator(c.Operator) {
		return Predicate{}, fmt.Errorf("unknown operator %q", c.Operator)
	}
	if !f.Kind.Supports(c.Operator) {
		return Predicate{}, fmt.Errorf("operator %s is not supported for %s field %q", c.Operator, f.Kind, f.Name)
	}
	if f.Values != nil && !enumOperator(c.Operator) {
		return Predicate{}, fmt.Errorf("operator %s is not supported for enum field %q", c.Operator, f.Name)
	}

	p := Predicate{Field: f.Name, Column: f.Column, Kind: f.Kind, Operator: c.Operator}
	var err error
	switch c.Operator {
	case OpIsNull, OpIsNotNull:
		if c.Value != nil {
			return Predicate{}, fmt.Errorf("operator %s takes no value", c.Operator)
		}
	case OpIn:
		p.Value, err = convertList(f.Kind, c.Value)
	default:
		p.Value, err = convert(f.Kind, c.Value)
	}
	if err == nil && f.Values != nil {
		err = checkEnum(f.Values, p.Value)
	}
	if err != nil {
		return Predicate{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return p, nil
}

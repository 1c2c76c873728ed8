package query

import (
	"bytes"
	"cmp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Match reports whether item satisfies every predicate. It mirrors the SQL
// rendering of Where: comparisons against NULL are false.
func (s *Schema[T]) Match(preds []Predicate, item *T) bool {
	for _, p := range preds {
		f, ok := s.Field(p.Field)
		if !ok || !matches(p, f.Value(item)) {
			return false
		}
	}
	return true
}

func matches(p Predicate, v any) bool {
	switch p.Operator {
	case OpIsNull:
		return v == nil
	case OpIsNotNull:
		return v != nil
	}
	if v == nil {
		return false
	}

	switch p.Operator {
	case OpEq:
		return compare(v, p.Value) == 0
	case OpNe:
		return compare(v, p.Value) != 0
	case OpLt:
		return compare(v, p.Value) < 0
	case OpLte:
		return compare(v, p.Value) <= 0
	case OpGt:
		return compare(v, p.Value) > 0
	case OpGte:
		return compare(v, p.Value) >= 0
	case OpContains:
		return strings.Contains(strings.ToLower(v.(string)), strings.ToLower(p.Value.(string)))
	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(v.(string)), strings.ToLower(p.Value.(string)))
	case OpIn:
		return contains(p.Value, v)
	}
	return false
}

func contains(list, v any) bool {
	switch l := list.(type) {
	case []string:
		for _, item := range l {
			if compare(v, item) == 0 {
				return true
			}
		}
	case []int64:
		for _, item := range l {
			if compare(v, item) == 0 {
				return true
			}
		}
	case []uuid.UUID:
		for _, item := range l {
			if compare(v, item) == 0 {
				return true
			}
		}
	}
	return false
}

// compare orders two non-nil values of the same kind.
func compare(a, b any) int {
	switch x := a.(type) {
	case string:
		return strings.Compare(x, b.(string))
	case int64:
		return cmp.Compare(x, b.(int64))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		return x.Compare(b.(time.Time))
	case uuid.UUID:
		y := b.(uuid.UUID)
		return bytes.Compare(x[:], y[:])
	}
	return 0
}

// Less orders a before b by the compiled sort keys. NULLs sort last in
// ascending order and first in descending order, like Postgres.
func (s *Schema[T]) Less(orders []Order, a, b *T) bool {
	for _, o := range orders {
		f, ok := s.Field(o.Field)
		if !ok {
			continue
		}
		va, vb := f.Value(a), f.Value(b)
		var c int
		switch {
		case va == nil && vb == nil:
			c = 0
		case va == nil:
			c = 1
		case vb == nil:
			c = -1
		default:
			c = compare(va, vb)
		}
		if o.Direction == DESC {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

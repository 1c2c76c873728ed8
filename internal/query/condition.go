package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpIn         Operator = "in"
	OpIsNull     Operator = "isNull"
	OpIsNotNull  Operator = "isNotNull"
)

// Condition is one field/operator/value triple of a filter request.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Eq is shorthand for an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Operator: OpEq, Value: value}
}

// Kind is the value type of a filterable field. Enums are strings.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTime
	KindUUID
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// Supports reports whether op can be applied to fields of kind k.
func (k Kind) Supports(op Operator) bool {
	switch op {
	case OpEq, OpNe, OpIsNull, OpIsNotNull:
		return true
	case OpLt, OpLte, OpGt, OpGte:
		return k == KindString || k == KindInt || k == KindTime
	case OpContains, OpStartsWith:
		return k == KindString
	case OpIn:
		return k == KindString || k == KindInt || k == KindUUID
	default:
		return false
	}
}

func knownOperator(op Operator) bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpContains, OpStartsWith, OpIn, OpIsNull, OpIsNotNull:
		return true
	}
	return false
}

func enumOperator(op Operator) bool {
	switch op {
	case OpEq, OpNe, OpIn, OpIsNull, OpIsNotNull:
		return true
	}
	return false
}

var errNoValue = errors.New("value is required")

// checkEnum rejects a converted string, or any element of a converted string
// list, that is not one of allowed.
func checkEnum(allowed []string, v any) error {
	var got []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		got = []string{t}
	case []string:
		got = t
	}
	for _, s := range got {
		if !slices.Contains(allowed, s) {
			return fmt.Errorf("%q is not one of %s", s, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// convert turns a decoded JSON value into the typed value of kind k.
func convert(k Kind, v any) (any, error) {
	if v == nil {
		return nil, errNoValue
	}
	switch k {
	case KindString:
		switch s := v.(type) {
		case string:
			return s, nil
		case fmt.Stringer:
			return s.String(), nil
		}
	case KindInt:
		return toInt(v)
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean", b)
			}
			return parsed, nil
		}
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, fmt.Errorf("%q is not an RFC 3339 timestamp", t)
			}
			return parsed, nil
		}
	case KindUUID:
		switch u := v.(type) {
		case uuid.UUID:
			return u, nil
		case string:
			parsed, err := uuid.Parse(u)
			if err != nil {
				return nil, fmt.Errorf("%q is not a UUID", u)
			}
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("expected a %s value", k)
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("expected an int value")
}

// convertList converts the value of an "in" condition into a typed slice.
func convertList(k Kind, v any) (any, error) {
	var raw []any
	switch list := v.(type) {
	case []any:
		raw = list
	case []string:
		raw = make([]any, len(list))
		for i, s := range list {
			raw[i] = s
		}
	case nil:
		return nil, errNoValue
	default:
		return nil, fmt.Errorf("expected a list of %s values", k)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("list must not be empty")
	}

	switch k {
	case KindString:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			c, err := convert(k, item)
			if err != nil {
				return nil, err
			}
			out = append(out, c.(string))
		}
		return out, nil
	case KindInt:
		out := make([]int64, 0, len(raw))
		for _, item := range raw {
			c, err := convert(k, item)
			if err != nil {
				return nil, err
			}
			out = append(out, c.(int64))
		}
		return out, nil
	case KindUUID:
		out := make([]uuid.UUID, 0, len(raw))
		for _, item := range raw {
			c, err := convert(k, item)
			if err != nil {
				return nil, err
			}
			out = append(out, c.(uuid.UUID))
		}
		return out, nil
	}
	return nil, fmt.Errorf("operator in is not supported for %s fields", k)
}

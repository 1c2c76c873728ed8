package query

import (
	"fmt"
	"strings"

	dErrors "refdata/pkg/domain-errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Direction is a sort direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// ParseDirection accepts asc/desc in any case. An empty string means ASC.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return ASC, nil
	case "DESC":
		return DESC, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

// Sort orders results by one wire field.
type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction,omitempty"`
}

// ParseSort reads the "field,dir" form used by the sort query parameter.
func ParseSort(s string) (Sort, error) {
	field, dir, _ := strings.Cut(s, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return Sort{}, fmt.Errorf("sort field is required")
	}
	d, err := ParseDirection(dir)
	if err != nil {
		return Sort{}, err
	}
	return Sort{Field: field, Direction: d}, nil
}

// PageRequest selects one page of results.
type PageRequest struct {
	Page int    `json:"page"`
	Size int    `json:"size"`
	Sort []Sort `json:"sort,omitempty"`
}

// Normalize fills in the default page size and sort direction.
func (r *PageRequest) Normalize() {
	if r.Size == 0 {
		r.Size = DefaultPageSize
	}
	for i := range r.Sort {
		if r.Sort[i].Direction == "" {
			r.Sort[i].Direction = ASC
		} else {
			r.Sort[i].Direction = Direction(strings.ToUpper(string(r.Sort[i].Direction)))
		}
	}
}

// Validate checks page bounds and sort directions. Oversized pages are
// rejected rather than clamped.
func (r PageRequest) Validate() error {
	fields := map[string]string{}
	if r.Page < 0 {
		fields["page"] = "must be greater than or equal to 0"
	}
	if r.Size < 1 || r.Size > MaxPageSize {
		fields["size"] = fmt.Sprintf("must be between 1 and %d", MaxPageSize)
	}
	for i, s := range r.Sort {
		if s.Direction != ASC && s.Direction != DESC {
			fields[fmt.Sprintf("sort[%d].direction", i)] = "must be ASC or DESC"
		}
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid page request", fields)
	}
	return nil
}

// Offset is the number of rows skipped before this page.
func (r PageRequest) Offset() int64 {
	return int64(r.Page) * int64(r.Size)
}

// FilterRequest is a page request narrowed by filter conditions. All
// conditions must hold.
type FilterRequest struct {
	PageRequest
	Filters []Condition `json:"filters,omitempty"`
}

// Where returns a copy of r with extra conditions appended.
func (r FilterRequest) Where(conds ...Condition) FilterRequest {
	out := r
	out.Filters = make([]Condition, 0, len(r.Filters)+len(conds))
	out.Filters = append(out.Filters, r.Filters...)
	out.Filters = append(out.Filters, conds...)
	return out
}

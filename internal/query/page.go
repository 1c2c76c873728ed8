package query

// Page is the pagination envelope returned by every list endpoint.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// NewPage builds an envelope. Content is never nil so empty pages encode as [].
func NewPage[T any](content []T, total int64, page, size int) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Page:          page,
		Size:          size,
	}
}

// MapPage converts the content of p, keeping its metadata.
func MapPage[A, B any](p Page[A], fn func(A) (B, error)) (Page[B], error) {
	out := make([]B, 0, len(p.Content))
	for _, item := range p.Content {
		mapped, err := fn(item)
		if err != nil {
			return Page[B]{}, err
		}
		out = append(out, mapped)
	}
	return Page[B]{
		Content:       out,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Page:          p.Page,
		Size:          p.Size,
	}, nil
}

// WithContent returns p's metadata around new content.
func WithContent[A, B any](p Page[A], content []B) Page[B] {
	if content == nil {
		content = []B{}
	}
	return Page[B]{
		Content:       content,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Page:          p.Page,
		Size:          p.Size,
	}
}

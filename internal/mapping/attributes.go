// Package mapping holds the codecs mappers use to move free-form attribute
// maps between their JSON text column and the wire shape.
package mapping

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMapping marks a record that cannot be converted between its storage and
// wire shapes. It is never retried or replaced by a fallback value.
var ErrMapping = errors.New("mapping failed")

// Attributes is a free-form map of extension attributes.
type Attributes map[string]any

// EncodeAttributes serialises attrs for a JSON text column. Nil and empty
// maps are stored as NULL.
func EncodeAttributes(attrs Attributes) (sql.NullString, error) {
	if len(attrs) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("%w: encode attributes: %w", ErrMapping, err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// DecodeAttributes parses a JSON text column. NULL and blank columns decode
// to nil; anything but a JSON object is a mapping error.
func DecodeAttributes(col sql.NullString) (Attributes, error) {
	if !col.Valid || strings.TrimSpace(col.String) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewBufferString(col.String))
	dec.UseNumber()
	var attrs Attributes
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("%w: decode attributes: %w", ErrMapping, err)
	}
	if attrs == nil {
		return nil, fmt.Errorf("%w: decode attributes: expected a JSON object", ErrMapping)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: decode attributes: trailing data", ErrMapping)
	}
	return attrs, nil
}

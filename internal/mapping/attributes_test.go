package mapping

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAttributes(t *testing.T) {
	t.Run("empty maps are stored as NULL", func(t *testing.T) {
		col, err := EncodeAttributes(nil)
		require.NoError(t, err)
		assert.False(t, col.Valid)

		col, err = EncodeAttributes(Attributes{})
		require.NoError(t, err)
		assert.False(t, col.Valid)
	})

	t.Run("encodes nested values", func(t *testing.T) {
		col, err := EncodeAttributes(Attributes{"color": "red", "tags": []string{"a"}})
		require.NoError(t, err)
		assert.True(t, col.Valid)
		assert.JSONEq(t, `{"color":"red","tags":["a"]}`, col.String)
	})

	t.Run("unserialisable values are mapping errors", func(t *testing.T) {
		_, err := EncodeAttributes(Attributes{"fn": func() {}})
		require.ErrorIs(t, err, ErrMapping)
	})
}

func TestDecodeAttributes(t *testing.T) {
	t.Run("NULL and blank decode to nil", func(t *testing.T) {
		attrs, err := DecodeAttributes(sql.NullString{})
		require.NoError(t, err)
		assert.Nil(t, attrs)

		attrs, err = DecodeAttributes(sql.NullString{String: "  ", Valid: true})
		require.NoError(t, err)
		assert.Nil(t, attrs)
	})

	t.Run("round trips through encode", func(t *testing.T) {
		col, err := EncodeAttributes(Attributes{"max": 3, "label": "x"})
		require.NoError(t, err)
		attrs, err := DecodeAttributes(col)
		require.NoError(t, err)
		assert.Equal(t, Attributes{"max": json.Number("3"), "label": "x"}, attrs)
	})

	for name, raw := range map[string]string{
		"malformed":     `{"a":`,
		"not an object": `[1,2]`,
		"json null":     `null`,
		"trailing data": `{"a":1} {"b":2}`,
	} {
		t.Run(name+" is a mapping error", func(t *testing.T) {
			_, err := DecodeAttributes(sql.NullString{String: raw, Valid: true})
			require.ErrorIs(t, err, ErrMapping)
		})
	}
}

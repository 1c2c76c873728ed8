package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Code string `json:"code"`
	Rank int    `json:"rank"`
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", entry{Code: "US", Rank: 1}, time.Minute))

	var got entry
	hit, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, entry{Code: "US", Rank: 1}, got)

	now = now.Add(time.Minute)
	hit, err = m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry should expire at its ttl")
	assert.Zero(t, m.Len())

	require.NoError(t, m.Set(ctx, "a", entry{}, 0))
	require.NoError(t, m.Set(ctx, "b", entry{}, 0))
	require.NoError(t, m.Delete(ctx, "a", "b", "missing"))
	assert.Zero(t, m.Len())
}

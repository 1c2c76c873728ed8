package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refdata/pkg/platform/circuit"
)

// flaky fails every call while down is set.
type flaky struct {
	*Memory
	down  bool
	calls int
}

func (f *flaky) Get(ctx context.Context, key string, dst any) (bool, error) {
	f.calls++
	if f.down {
		return false, errors.New("connection refused")
	}
	return f.Memory.Get(ctx, key, dst)
}

func (f *flaky) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.calls++
	if f.down {
		return errors.New("connection refused")
	}
	return f.Memory.Set(ctx, key, value, ttl)
}

func TestGuarded(t *testing.T) {
	ctx := context.Background()
	backend := &flaky{Memory: NewMemory()}
	breaker := circuit.New("redis", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1), circuit.WithCooldown(time.Hour))
	g := NewGuarded(backend, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, g.Set(ctx, "k", entry{Code: "US"}, time.Minute))

	backend.down = true
	var got entry
	_, err := g.Get(ctx, "k", &got)
	assert.Error(t, err)
	_, err = g.Get(ctx, "k", &got)
	assert.Error(t, err)
	assert.True(t, breaker.IsOpen())

	calls := backend.calls
	hit, err := g.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit, "open circuit reads as a miss")
	assert.NoError(t, g.Set(ctx, "k", entry{Code: "FR"}, time.Minute))
	assert.ErrorIs(t, g.Delete(ctx, "k"), ErrCircuitOpen)
	assert.Equal(t, calls, backend.calls, "backend is not called while open")

	backend.down = false
	breaker.Reset()
	hit, err = g.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "US", got.Code)
}

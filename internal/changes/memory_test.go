package changes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOutboxDrain(t *testing.T) {
	ctx := context.Background()

	t.Run("recording is not blocked while a batch is published", func(t *testing.T) {
		outbox := NewMemoryOutbox()
		recordN(t, outbox, 2)

		publishing := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			_, err := outbox.Drain(ctx, 10, func(context.Context, []Change) error {
				close(publishing)
				<-release
				return nil
			})
			done <- err
		}()

		<-publishing
		recorded := make(chan struct{})
		go func() {
			_ = outbox.Record(ctx, Change{Entity: "countries", Action: ActionUpdated, Payload: []byte(`{}`)})
			close(recorded)
		}()
		select {
		case <-recorded:
		case <-time.After(time.Second):
			t.Fatal("Record blocked behind a slow publish")
		}
		assert.Equal(t, 3, outbox.Pending())

		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, 1, outbox.Pending())
	})

	t.Run("published changes are dropped in order", func(t *testing.T) {
		outbox := NewMemoryOutbox()
		recordN(t, outbox, 3)
		before := outbox.Changes()

		n, err := outbox.Drain(ctx, 2, func(_ context.Context, batch []Change) error {
			assert.Equal(t, before[:2], batch)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, before[2:], outbox.Changes())
	})

	t.Run("empty outbox skips the publisher", func(t *testing.T) {
		n, err := NewMemoryOutbox().Drain(ctx, 10, func(context.Context, []Change) error {
			t.Fatal("publisher called without changes")
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

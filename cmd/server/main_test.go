package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refdata/internal/changes"
)

func TestChangeSink(t *testing.T) {
	ctx := context.Background()
	change := changes.Change{Entity: "countries", EntityID: uuid.New(), Action: changes.ActionCreated}

	t.Run("without a broker changes are discarded", func(t *testing.T) {
		store := changes.NewMemoryOutbox()
		recorder, source := changeSink(store, false)

		require.NoError(t, recorder.Record(ctx, change))
		assert.Nil(t, source)
		assert.IsType(t, changes.Discard{}, recorder)
		assert.Zero(t, store.Pending())
	})

	t.Run("with a broker the outbox is recorded and drained", func(t *testing.T) {
		store := changes.NewMemoryOutbox()
		recorder, source := changeSink(store, true)

		require.NoError(t, recorder.Record(ctx, change))
		assert.Equal(t, 1, store.Pending())
		assert.Same(t, store, source)
	})
}

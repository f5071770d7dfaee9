package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormWatermarkStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

	t.Run("never sent returns nil", func(t *testing.T) {
		store := NewGormWatermarkStore(newTestDatabase(t).DB)
		got, err := store.Get(ctx, "1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set replaces previous value", func(t *testing.T) {
		store := NewGormWatermarkStore(newTestDatabase(t).DB)
		require.NoError(t, store.Set(ctx, "1", base))
		require.NoError(t, store.Set(ctx, "1", base.Add(time.Hour)))

		got, err := store.Get(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Equal(base.Add(time.Hour)))
	})

	t.Run("stores instants in UTC", func(t *testing.T) {
		store := NewGormWatermarkStore(newTestDatabase(t).DB)
		loc := time.FixedZone("UTC-3", -3*3600)
		require.NoError(t, store.Set(ctx, "1", base.In(loc)))

		got, err := store.Get(ctx, "1")
		require.NoError(t, err)
		assert.True(t, got.Equal(base))
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("minimum ignores unsent ids", func(t *testing.T) {
		store := NewGormWatermarkStore(newTestDatabase(t).DB)
		require.NoError(t, store.Set(ctx, "a", base.Add(2*time.Hour)))
		require.NoError(t, store.Set(ctx, "b", base))
		require.NoError(t, store.Set(ctx, "c", base.Add(time.Hour)))

		got, err := store.MinimumWatermark(ctx, []string{"a", "c", "missing"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Equal(base.Add(time.Hour)))
	})

	t.Run("minimum of unknown ids is nil", func(t *testing.T) {
		store := NewGormWatermarkStore(newTestDatabase(t).DB)
		got, err := store.MinimumWatermark(ctx, []string{"x", "y"})
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = store.MinimumWatermark(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("minimum spans chunks", func(t *testing.T) {
		store := NewGormWatermarkStore(newTestDatabase(t).DB)
		ids := make([]string, 0, watermarkChunkSize+10)
		for i := 0; i < watermarkChunkSize+10; i++ {
			ids = append(ids, fmt.Sprintf("doc-%04d", i))
		}
		require.NoError(t, store.Set(ctx, ids[3], base.Add(time.Hour)))
		require.NoError(t, store.Set(ctx, ids[len(ids)-1], base))

		got, err := store.MinimumWatermark(ctx, ids)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Equal(base))
	})
}

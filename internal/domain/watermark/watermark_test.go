package watermark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEarliest(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	t.Run("no values", func(t *testing.T) {
		assert.Nil(t, Earliest())
	})

	t.Run("all absent", func(t *testing.T) {
		assert.Nil(t, Earliest(nil, nil))
	})

	t.Run("mixed", func(t *testing.T) {
		got := Earliest(&t2, nil, &t1)
		require.NotNil(t, got)
		assert.True(t, got.Equal(t1))
	})

	t.Run("returns a copy", func(t *testing.T) {
		v := t1
		got := Earliest(&v)
		v = t2
		assert.True(t, got.Equal(t1))
	})
}

package partner

import (
	"errors"
	"strings"
	"testing"

	"github.com/erp/paysync/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCounterparty(t *testing.T) {
	t.Run("creates counterparty with trimmed fields", func(t *testing.T) {
		c, err := NewCounterparty("  ACME ", " Acme Corp ")
		require.NoError(t, err)
		assert.Equal(t, "ACME", c.Code)
		assert.Equal(t, "Acme Corp", c.Name)
	})

	t.Run("allows empty name", func(t *testing.T) {
		c, err := NewCounterparty("A2", "")
		require.NoError(t, err)
		assert.Equal(t, "", c.Name)
	})

	t.Run("keeps code case", func(t *testing.T) {
		c, err := NewCounterparty("c20000", "x")
		require.NoError(t, err)
		assert.Equal(t, "c20000", c.Code)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		c, err := NewCounterparty("   ", "Name")
		assert.Nil(t, c)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with long code", func(t *testing.T) {
		_, err := NewCounterparty(strings.Repeat("X", 51), "Name")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "50 characters")
	})
}

func TestCodes(t *testing.T) {
	codes := Codes([]Counterparty{{Code: "B"}, {Code: "A"}})
	assert.Equal(t, []string{"B", "A"}, codes)
	assert.Empty(t, Codes(nil))
}

package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredential(t *testing.T) {
	t.Run("hashes password", func(t *testing.T) {
		c, err := NewCredential("apiuser", "apipass")
		require.NoError(t, err)
		assert.Equal(t, "apiuser", c.Username)
		assert.NotEqual(t, "apipass", c.PasswordHash)
		assert.True(t, c.VerifyPassword("apipass"))
		assert.False(t, c.VerifyPassword("wrong"))
	})

	t.Run("rejects empty username", func(t *testing.T) {
		_, err := NewCredential("  ", "secret")
		require.Error(t, err)
	})

	t.Run("rejects invalid username characters", func(t *testing.T) {
		_, err := NewCredential("api user", "secret")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "letters, numbers")
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := NewCredential("apiuser", "")
		require.Error(t, err)
	})
}

func TestIssuedToken_IsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := &IssuedToken{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, tok.IsExpired(now))
	assert.True(t, tok.IsExpired(now.Add(time.Hour)))
	assert.True(t, tok.IsExpired(now.Add(2*time.Hour)))
}

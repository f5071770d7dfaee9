package auth

import (
	"testing"
	"time"

	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.AuthConfig{
		JWTSecret: "test-secret-key-at-least-32-chars",
		Issuer:    "paysync-test",
		TokenTTL:  8 * time.Hour,
	})
}

func TestNewJWTService(t *testing.T) {
	svc := NewJWTService(config.AuthConfig{JWTSecret: "s"})
	assert.Equal(t, 8*time.Hour, svc.Expiration())
	assert.Equal(t, []byte("s"), svc.secret)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()

	issued, err := svc.GenerateToken("apiuser")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, "apiuser", issued.Username)
	_, err = uuid.Parse(issued.ID)
	assert.NoError(t, err)
	assert.WithinDuration(t, issued.IssuedAt.Add(8*time.Hour), issued.ExpiresAt, time.Second)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "apiuser", claims.Username)
	assert.Equal(t, "paysync-test", claims.Issuer)
}

func TestJWTService_GenerateToken_UniqueIDs(t *testing.T) {
	svc := newTestJWTService()
	a, err := svc.GenerateToken("apiuser")
	require.NoError(t, err)
	b, err := svc.GenerateToken("apiuser")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestJWTService_ValidateToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	t.Run("expired", func(t *testing.T) {
		issued, err := svc.GenerateToken("apiuser")
		require.NoError(t, err)

		later := *svc
		later.now = func() time.Time { return time.Now().Add(9 * time.Hour) }
		_, err = later.ValidateToken(issued.Token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := *svc
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		issued, err := future.GenerateToken("apiuser")
		require.NoError(t, err)

		_, err = svc.ValidateToken(issued.Token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{JWTSecret: "another-secret-key-32-characters"})
		issued, err := other.GenerateToken("apiuser")
		require.NoError(t, err)

		_, err = svc.ValidateToken(issued.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.New().String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Username: "apiuser",
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing username", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrMissingUsername)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{ID: uuid.New().String()},
			Username:         "apiuser",
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

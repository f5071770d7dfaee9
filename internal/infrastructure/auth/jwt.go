package auth

import (
	"errors"
	"time"

	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUsername  = errors.New("missing username in claims")
)

// Claims represents custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// IssuedToken is a freshly signed token with its identifiers
type IssuedToken struct {
	ID        string
	Token     string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// JWTService signs and parses API tokens
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.AuthConfig) *JWTService {
	expiration := cfg.TokenTTL
	if expiration <= 0 {
		expiration = 8 * time.Hour
	}
	return &JWTService{
		secret:     []byte(cfg.JWTSecret),
		expiration: expiration,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

// GenerateToken signs a token for username. The jti is a random uuid.
func (s *JWTService) GenerateToken(username string) (*IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)
	jti := uuid.New().String()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{
		ID:        jti,
		Token:     signed,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken checks signature and time claims and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidClaims
	}
	if claims.Username == "" {
		return nil, ErrMissingUsername
	}
	return claims, nil
}

// Expiration returns the token lifetime
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

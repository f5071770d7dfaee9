// Package identity holds the API credentials and the short-lived tokens issued
// against them for protected operations.
package identity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/erp/paysync/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = bcrypt.DefaultCost

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// Credential is an API user allowed to request tokens
type Credential struct {
	Username     string    `gorm:"type:varchar(100);primaryKey"`
	PasswordHash string    `gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Credential) TableName() string {
	return "users"
}

// NewCredential creates a credential with a bcrypt-hashed password
func NewCredential(username, password string) (*Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 100 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Username must be between 1 and 100 characters")
	}
	if !usernamePattern.MatchString(username) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	if password == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Password cannot be empty")
	}
	if len(password) > 72 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Password cannot exceed 72 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Credential{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (c *Credential) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

// IssuedToken is a token handed out by the token endpoint
type IssuedToken struct {
	ID        string    `gorm:"type:varchar(64);primaryKey"`
	Token     string    `gorm:"type:text;not null"`
	Username  string    `gorm:"type:varchar(100);not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IssuedToken) TableName() string {
	return "issued_tokens"
}

// IsExpired reports whether the token is expired at the given instant
func (t *IssuedToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// CredentialRepository defines the interface for credential persistence
type CredentialRepository interface {
	// FindByUsername returns shared.ErrNotFound for an unknown user
	FindByUsername(ctx context.Context, username string) (*Credential, error)

	// Create inserts the credential; it fails with shared.ErrAlreadyExists
	Create(ctx context.Context, credential *Credential) error

	// Count returns the number of stored credentials
	Count(ctx context.Context) (int64, error)
}

// IssuedTokenRepository defines the interface for issued token persistence
type IssuedTokenRepository interface {
	// Save stores an issued token
	Save(ctx context.Context, token *IssuedToken) error

	// FindByID returns shared.ErrNotFound when the token was never issued
	FindByID(ctx context.Context, id string) (*IssuedToken, error)

	// DeleteExpired removes tokens that expired before the given instant
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

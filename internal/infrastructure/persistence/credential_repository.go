package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/paysync/internal/domain/identity"
	"github.com/erp/paysync/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCredentialRepository implements identity.CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

var _ identity.CredentialRepository = (*GormCredentialRepository)(nil)

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// FindByUsername finds a credential by username
func (r *GormCredentialRepository) FindByUsername(ctx context.Context, username string) (*identity.Credential, error) {
	var c identity.Credential
	if err := r.db.WithContext(ctx).First(&c, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new credential
func (r *GormCredentialRepository) Create(ctx context.Context, c *identity.Credential) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Count returns the number of stored credentials
func (r *GormCredentialRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&identity.Credential{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// GormIssuedTokenRepository implements identity.IssuedTokenRepository using GORM
type GormIssuedTokenRepository struct {
	db *gorm.DB
}

var _ identity.IssuedTokenRepository = (*GormIssuedTokenRepository)(nil)

// NewGormIssuedTokenRepository creates a new GormIssuedTokenRepository
func NewGormIssuedTokenRepository(db *gorm.DB) *GormIssuedTokenRepository {
	return &GormIssuedTokenRepository{db: db}
}

// Save stores an issued token
func (r *GormIssuedTokenRepository) Save(ctx context.Context, token *identity.IssuedToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindByID finds an issued token by its id
func (r *GormIssuedTokenRepository) FindByID(ctx context.Context, id string) (*identity.IssuedToken, error) {
	var tok identity.IssuedToken
	if err := r.db.WithContext(ctx).First(&tok, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tok, nil
}

// DeleteExpired removes tokens whose expiry is before the given instant
func (r *GormIssuedTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&identity.IssuedToken{})
	return result.RowsAffected, result.Error
}

package persistence

import (
	"context"
	"errors"

	"github.com/erp/paysync/internal/domain/partner"
	"github.com/erp/paysync/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCounterpartyRepository implements partner.CounterpartyRepository using GORM
type GormCounterpartyRepository struct {
	db *gorm.DB
}

var _ partner.CounterpartyRepository = (*GormCounterpartyRepository)(nil)

// NewGormCounterpartyRepository creates a new GormCounterpartyRepository
func NewGormCounterpartyRepository(db *gorm.DB) *GormCounterpartyRepository {
	return &GormCounterpartyRepository{db: db}
}

// List returns all counterparties ordered by code
func (r *GormCounterpartyRepository) List(ctx context.Context) ([]partner.Counterparty, error) {
	var out []partner.Counterparty
	if err := r.db.WithContext(ctx).Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindByCode finds a counterparty by its code
func (r *GormCounterpartyRepository) FindByCode(ctx context.Context, code string) (*partner.Counterparty, error) {
	var c partner.Counterparty
	if err := r.db.WithContext(ctx).First(&c, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Add inserts the counterparty; a duplicate code is reported as false
func (r *GormCounterpartyRepository) Add(ctx context.Context, c *partner.Counterparty) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(c)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Remove deletes the counterparty with the given code
func (r *GormCounterpartyRepository) Remove(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&partner.Counterparty{}, "code = ?", code)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

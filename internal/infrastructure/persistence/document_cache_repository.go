package persistence

import (
	"context"
	"errors"

	"github.com/erp/paysync/internal/domain/document"
	"github.com/erp/paysync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentCache implements document.Cache using GORM
type GormDocumentCache struct {
	db *gorm.DB
}

var _ document.Cache = (*GormDocumentCache)(nil)

// NewGormDocumentCache creates a new GormDocumentCache
func NewGormDocumentCache(db *gorm.DB) *GormDocumentCache {
	return &GormDocumentCache{db: db}
}

// Get returns the cached document or (nil, nil) when absent
func (r *GormDocumentCache) Get(ctx context.Context, internalID string) (*document.Document, error) {
	var m models.DocumentModel
	if err := r.db.WithContext(ctx).First(&m, "internal_id = ?", internalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m.ToDomain()
}

// Upsert inserts the document or replaces the stored version
func (r *GormDocumentCache) Upsert(ctx context.Context, doc *document.Document) error {
	m, err := models.DocumentModelFromDomain(doc)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "internal_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

// ListInternalIDs returns the ids cached for one counterparty, ordered
func (r *GormDocumentCache) ListInternalIDs(ctx context.Context, counterpartyCode string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("counterparty_code = ?", counterpartyCode).
		Order("internal_id").
		Pluck("internal_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/paysync/internal/domain/watermark"
	"github.com/erp/paysync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// watermarkChunkSize bounds the IN list of a single minimum query
const watermarkChunkSize = 500

// GormWatermarkStore implements watermark.Store using GORM
type GormWatermarkStore struct {
	db *gorm.DB
}

var _ watermark.Store = (*GormWatermarkStore)(nil)

// NewGormWatermarkStore creates a new GormWatermarkStore
func NewGormWatermarkStore(db *gorm.DB) *GormWatermarkStore {
	return &GormWatermarkStore{db: db}
}

// Get returns the last delivery instant or (nil, nil) when never sent
func (s *GormWatermarkStore) Get(ctx context.Context, internalID string) (*time.Time, error) {
	var m models.SentLogModel
	if err := s.db.WithContext(ctx).First(&m, "internal_id = ?", internalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := m.LastSent.UTC()
	return &t, nil
}

// Set records the delivery instant, replacing any previous value
func (s *GormWatermarkStore) Set(ctx context.Context, internalID string, at time.Time) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "internal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_sent"}),
		}).
		Create(&models.SentLogModel{InternalID: internalID, LastSent: at.UTC()}).Error
}

// MinimumWatermark returns the earliest instant recorded for any of ids
func (s *GormWatermarkStore) MinimumWatermark(ctx context.Context, internalIDs []string) (*time.Time, error) {
	var earliest *time.Time
	for start := 0; start < len(internalIDs); start += watermarkChunkSize {
		end := min(start+watermarkChunkSize, len(internalIDs))

		var rows []models.SentLogModel
		if err := s.db.WithContext(ctx).
			Where("internal_id IN ?", internalIDs[start:end]).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			t := row.LastSent.UTC()
			earliest = watermark.Earliest(earliest, &t)
		}
	}
	return earliest, nil
}

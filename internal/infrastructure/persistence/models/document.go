package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/paysync/internal/domain/document"
	"gorm.io/datatypes"
)

// DocumentModel is the cached copy of one normalized document.
// The full document is kept as JSON; the other columns support lookups.
type DocumentModel struct {
	InternalID       string         `gorm:"type:varchar(64);primaryKey"`
	CounterpartyCode string         `gorm:"type:varchar(50);not null;index"`
	DocumentType     string         `gorm:"type:varchar(20);not null"`
	Payload          datatypes.JSON `gorm:"not null"`
	LastUpdatedAt    *time.Time
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain decodes the stored payload
func (m *DocumentModel) ToDomain() (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(m.Payload, &doc); err != nil {
		return nil, fmt.Errorf("decode cached document %s: %w", m.InternalID, err)
	}
	return &doc, nil
}

// DocumentModelFromDomain encodes a document for storage
func DocumentModelFromDomain(doc *document.Document) (*DocumentModel, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", doc.InternalID, err)
	}
	m := &DocumentModel{
		InternalID:       doc.InternalID,
		CounterpartyCode: doc.CounterpartyCode(),
		DocumentType:     string(doc.Type),
		Payload:          datatypes.JSON(payload),
	}
	if doc.LastUpdatedAt != nil {
		t := doc.LastUpdatedAt.In(time.UTC)
		m.LastUpdatedAt = &t
	}
	return m, nil
}

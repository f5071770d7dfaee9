package models

import "time"

// SentLogModel records when a document was last confirmed delivered
type SentLogModel struct {
	InternalID string    `gorm:"type:varchar(64);primaryKey"`
	LastSent   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SentLogModel) TableName() string {
	return "sent_log"
}

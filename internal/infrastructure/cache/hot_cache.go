package cache

import (
	"context"
	"time"

	"github.com/erp/paysync/internal/domain/document"
)

// HotCache is the fast, expiring tier in front of the durable document store
type HotCache interface {
	// Get returns (nil, nil) on a miss
	Get(ctx context.Context, internalID string) (*document.Document, error)
	Set(ctx context.Context, doc *document.Document, ttl time.Duration) error
	Delete(ctx context.Context, internalID string) error
}

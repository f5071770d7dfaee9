package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erp/paysync/internal/domain/document"
	"go.uber.org/zap"
)

// TieredDocumentCache implements document.Cache with a hot tier (Redis or
// memory) in front of the durable store. The store is authoritative: hot tier
// failures are logged and never fail the operation.
type TieredDocumentCache struct {
	hot    HotCache
	store  document.Cache
	ttl    time.Duration
	logger *zap.Logger

	hotHits   int64
	hotMisses int64
}

var _ document.Cache = (*TieredDocumentCache)(nil)

// TieredDocumentCacheOption is a functional option for configuring the cache
type TieredDocumentCacheOption func(*TieredDocumentCache)

// WithTTL sets the hot tier entry lifetime
func WithTTL(ttl time.Duration) TieredDocumentCacheOption {
	return func(c *TieredDocumentCache) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger for the cache
func WithLogger(logger *zap.Logger) TieredDocumentCacheOption {
	return func(c *TieredDocumentCache) {
		c.logger = logger
	}
}

// NewTieredDocumentCache creates a new tiered document cache
func NewTieredDocumentCache(hot HotCache, store document.Cache, opts ...TieredDocumentCacheOption) *TieredDocumentCache {
	c := &TieredDocumentCache{
		hot:    hot,
		store:  store,
		ttl:    24 * time.Hour,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get reads the hot tier first and falls back to the store
func (c *TieredDocumentCache) Get(ctx context.Context, internalID string) (*document.Document, error) {
	doc, err := c.hot.Get(ctx, internalID)
	if err != nil {
		c.logger.Warn("Hot cache read failed", zap.String("internal_id", internalID), zap.Error(err))
	}
	if doc != nil {
		atomic.AddInt64(&c.hotHits, 1)
		return doc, nil
	}
	atomic.AddInt64(&c.hotMisses, 1)

	doc, err = c.store.Get(ctx, internalID)
	if err != nil || doc == nil {
		return doc, err
	}
	if err := c.hot.Set(ctx, doc, c.ttl); err != nil {
		c.logger.Warn("Failed to populate hot cache", zap.String("internal_id", internalID), zap.Error(err))
	}
	return doc, nil
}

// Upsert writes the store and refreshes the hot tier
func (c *TieredDocumentCache) Upsert(ctx context.Context, doc *document.Document) error {
	if err := c.store.Upsert(ctx, doc); err != nil {
		return err
	}
	if err := c.hot.Set(ctx, doc, c.ttl); err != nil {
		c.logger.Warn("Failed to refresh hot cache", zap.String("internal_id", doc.InternalID), zap.Error(err))
		if err := c.hot.Delete(ctx, doc.InternalID); err != nil {
			c.logger.Warn("Failed to evict stale hot cache entry", zap.String("internal_id", doc.InternalID), zap.Error(err))
		}
	}
	return nil
}

// ListInternalIDs is served by the store only
func (c *TieredDocumentCache) ListInternalIDs(ctx context.Context, counterpartyCode string) ([]string, error) {
	return c.store.ListInternalIDs(ctx, counterpartyCode)
}

// Stats returns hot tier hit and miss counts
func (c *TieredDocumentCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hotHits), atomic.LoadInt64(&c.hotMisses)
}

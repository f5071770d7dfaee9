package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/paysync/internal/domain/document"
)

// InMemoryDocumentCache implements HotCache in process memory.
// It is used when Redis is not configured.
type InMemoryDocumentCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	doc       document.Document
	expiresAt time.Time // zero means no expiry
}

var _ HotCache = (*InMemoryDocumentCache)(nil)

// NewInMemoryDocumentCache creates an empty in-memory cache
func NewInMemoryDocumentCache() *InMemoryDocumentCache {
	return &InMemoryDocumentCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached document
func (c *InMemoryDocumentCache) Get(_ context.Context, internalID string) (*document.Document, error) {
	c.mu.RLock()
	e, ok := c.entries[internalID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[internalID]; ok && cur == e {
			delete(c.entries, internalID)
		}
		c.mu.Unlock()
		return nil, nil
	}
	doc := e.doc
	return &doc, nil
}

// Set stores a copy of doc
func (c *InMemoryDocumentCache) Set(_ context.Context, doc *document.Document, ttl time.Duration) error {
	e := &cacheEntry{doc: *doc}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[doc.InternalID] = e
	c.mu.Unlock()
	return nil
}

// Delete removes a cached document
func (c *InMemoryDocumentCache) Delete(_ context.Context, internalID string) error {
	c.mu.Lock()
	delete(c.entries, internalID)
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included
func (c *InMemoryDocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

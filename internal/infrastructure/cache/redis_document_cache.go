package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/paysync/internal/domain/document"
	"github.com/erp/paysync/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisDocumentCache keeps recently seen documents in Redis as JSON
type RedisDocumentCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ HotCache = (*RedisDocumentCache)(nil)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisDocumentCache creates a cache using an existing client
func NewRedisDocumentCache(client redis.UniversalClient, keyPrefix string) *RedisDocumentCache {
	return &RedisDocumentCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisDocumentCache) key(internalID string) string {
	return c.keyPrefix + "document:" + internalID
}

// Get retrieves a document from Redis
func (c *RedisDocumentCache) Get(ctx context.Context, internalID string) (*document.Document, error) {
	raw, err := c.client.Get(ctx, c.key(internalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", internalID, err)
	}
	var doc document.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode cached document %s: %w", internalID, err)
	}
	return &doc, nil
}

// Set stores a document with the given TTL
func (c *RedisDocumentCache) Set(ctx context.Context, doc *document.Document, ttl time.Duration) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.InternalID, err)
	}
	if err := c.client.Set(ctx, c.key(doc.InternalID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", doc.InternalID, err)
	}
	return nil
}

// Delete removes a document from Redis
func (c *RedisDocumentCache) Delete(ctx context.Context, internalID string) error {
	return c.client.Del(ctx, c.key(internalID)).Err()
}

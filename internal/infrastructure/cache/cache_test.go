package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/erp/paysync/internal/domain/document"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memStore is a document.Cache backed by a map
type memStore struct {
	mu   sync.Mutex
	docs map[string]document.Document
	gets int
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]document.Document{}}
}

func (s *memStore) Get(_ context.Context, id string) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	d, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *memStore) Upsert(_ context.Context, d *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.InternalID] = *d
	return nil
}

func (s *memStore) ListInternalIDs(_ context.Context, code string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, d := range s.docs {
		if d.IssuerID == code {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// brokenHot fails every call
type brokenHot struct{}

func (brokenHot) Get(context.Context, string) (*document.Document, error) {
	return nil, errors.New("hot tier down")
}
func (brokenHot) Set(context.Context, *document.Document, time.Duration) error {
	return errors.New("hot tier down")
}
func (brokenHot) Delete(context.Context, string) error { return errors.New("hot tier down") }

func doc(id, code string) *document.Document {
	return &document.Document{Type: document.TypeInvoice, InternalID: id, IssuerID: code, SerialNumber: code + "-" + id}
}

func TestInMemoryDocumentCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryDocumentCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, doc("1", "A"), time.Minute))
	require.NoError(t, c.Set(ctx, doc("2", "A"), 0))

	got, err := c.Get(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	got.Comment = "mutated"

	again, _ := c.Get(ctx, "1")
	assert.Empty(t, again.Comment)

	now = now.Add(2 * time.Minute)
	got, err = c.Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, c.Len())

	got, _ = c.Get(ctx, "2")
	assert.NotNil(t, got)

	require.NoError(t, c.Delete(ctx, "2"))
	got, _ = c.Get(ctx, "2")
	assert.Nil(t, got)
}

func TestTieredDocumentCache(t *testing.T) {
	ctx := context.Background()

	t.Run("read through populates hot tier", func(t *testing.T) {
		store := newMemStore()
		require.NoError(t, store.Upsert(ctx, doc("1", "A")))
		hot := NewInMemoryDocumentCache()
		c := NewTieredDocumentCache(hot, store, WithTTL(time.Hour))

		got, err := c.Get(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 1, hot.Len())

		_, err = c.Get(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, 1, store.gets)

		hits, misses := c.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("miss in both tiers", func(t *testing.T) {
		c := NewTieredDocumentCache(NewInMemoryDocumentCache(), newMemStore())
		got, err := c.Get(ctx, "404")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("upsert replaces hot entry", func(t *testing.T) {
		store := newMemStore()
		c := NewTieredDocumentCache(NewInMemoryDocumentCache(), store)
		require.NoError(t, c.Upsert(ctx, doc("1", "A")))

		updated := doc("1", "A")
		updated.Comment = "v2"
		require.NoError(t, c.Upsert(ctx, updated))

		got, err := c.Get(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Comment)
		assert.Equal(t, "v2", store.docs["1"].Comment)
	})

	t.Run("repeated upsert is idempotent", func(t *testing.T) {
		store := newMemStore()
		hot := NewInMemoryDocumentCache()
		c := NewTieredDocumentCache(hot, store)
		want := doc("1", "A")
		want.Comment = "same"
		require.NoError(t, c.Upsert(ctx, want))
		require.NoError(t, c.Upsert(ctx, want))

		got, err := c.Get(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, want.Equal(got))
		assert.Len(t, store.docs, 1)
		assert.Equal(t, 1, hot.Len())

		ids, err := c.ListInternalIDs(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, ids)
	})

	t.Run("hot tier failures are logged not returned", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		store := newMemStore()
		c := NewTieredDocumentCache(brokenHot{}, store, WithLogger(zap.New(core)))

		require.NoError(t, c.Upsert(ctx, doc("1", "A")))
		got, err := c.Get(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to refresh hot cache").Len())
		assert.Equal(t, 1, recorded.FilterMessage("Hot cache read failed").Len())
	})

	t.Run("lists ids from the store", func(t *testing.T) {
		store := newMemStore()
		c := NewTieredDocumentCache(NewInMemoryDocumentCache(), store)
		require.NoError(t, c.Upsert(ctx, doc("2", "A")))
		require.NoError(t, c.Upsert(ctx, doc("1", "A")))
		require.NoError(t, c.Upsert(ctx, doc("3", "B")))

		ids, err := c.ListInternalIDs(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, ids)
	})
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisDocumentCache_Unreachable(t *testing.T) {
	ctx := context.Background()
	c := NewRedisDocumentCache(unreachableRedis(t), "paysync:")
	assert.Equal(t, "paysync:document:42", c.key("42"))

	_, err := c.Get(ctx, "42")
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, doc("42", "A"), time.Minute))

	store := newMemStore()
	tiered := NewTieredDocumentCache(c, store)
	require.NoError(t, tiered.Upsert(ctx, doc("42", "A")))
	got, err := tiered.Get(ctx, "42")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRedisLock_Unreachable(t *testing.T) {
	lock := NewRedisLock(unreachableRedis(t), "paysync:lock:sync", time.Minute)
	release, err := lock.Obtain(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
	assert.Nil(t, release)
}

package translator

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default in-memory cache capacity in entries.
const DefaultCacheSize = 10000

// Store is the persistent cache consumed by the caching backend.
// Implemented by the storage package; kept as a small interface here so
// the translator does not depend on SQLite.
type Store interface {
	// GetTranslation returns the cached translation for a key, with a
	// hit flag.
	GetTranslation(ctx context.Context, key string) (string, bool, error)

	// PutTranslation stores a translation under its cache key.
	PutTranslation(ctx context.Context, key, provider, model, text string) error
}

// CachingBackend wraps a Backend with an LRU in-memory cache and an
// optional persistent store, keyed by the content hash of the input and
// its translation parameters. Identical chunks across files (license
// headers, generated boilerplate) translate once.
type CachingBackend struct {
	inner Backend
	cache *lru.Cache[string, string]
	store Store
}

// NewCachingBackend wraps backend with caching. A non-positive size
// falls back to DefaultCacheSize.
func NewCachingBackend(backend Backend, size int, store Store) *CachingBackend {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		// Only reachable with a non-positive size, which is clamped above.
		cache, _ = lru.New[string, string](DefaultCacheSize)
	}
	return &CachingBackend{
		inner: backend,
		cache: cache,
		store: store,
	}
}

func (b *CachingBackend) Translate(ctx context.Context, text string, req Request) (string, error) {
	key := CacheKey(text, req)

	if out, ok := b.cache.Get(key); ok {
		return out, nil
	}

	if b.store != nil {
		if out, ok, err := b.store.GetTranslation(ctx, key); err == nil && ok {
			b.cache.Add(key, out)
			return out, nil
		}
	}

	out, err := b.inner.Translate(ctx, text, req)
	if err != nil {
		return "", err
	}

	b.cache.Add(key, out)
	if b.store != nil {
		// Persist best-effort; a cache write failure must not fail the
		// translation itself.
		_ = b.store.PutTranslation(ctx, key, b.inner.Provider(), b.inner.Model(), out)
	}

	return out, nil
}

func (b *CachingBackend) Provider() string { return b.inner.Provider() }
func (b *CachingBackend) Model() string    { return b.inner.Model() }

func (b *CachingBackend) Close() error {
	b.cache.Purge()
	return b.inner.Close()
}

// CacheLen returns the current number of in-memory cached entries.
func (b *CachingBackend) CacheLen() int {
	return b.cache.Len()
}

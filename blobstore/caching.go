package blobstore

import (
	"context"

	"github.com/hupe1980/pagelog/internal/cache"
	"github.com/hupe1980/pagelog/internal/resource"
)

// CachingStore keeps recently read blobs in memory in front of a slower store.
type CachingStore struct {
	inner BlobStore
	cache *cache.BlobCache
}

var _ BlobStore = (*CachingStore)(nil)

// NewCachingStore wraps inner with an LRU cache of capacity bytes.
// rc may be nil.
func NewCachingStore(inner BlobStore, capacity int64, rc *resource.Controller) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: cache.NewBlobCache(capacity, rc),
	}
}

// Open serves a blob from the cache, reading it from the inner store on a miss.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := s.cache.Get(name); ok {
		return &bytesBlob{data: data}, nil
	}

	data, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, data)
	return &bytesBlob{data: data}, nil
}

// Put writes through to the inner store.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob from the cache and the inner store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List is never cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the cache hit and miss counters.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

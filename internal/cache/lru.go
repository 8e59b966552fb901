package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/pagelog/internal/resource"
)

// BlobCache is an LRU cache of blob contents bounded by total byte size.
type BlobCache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type blobEntry struct {
	name  string
	value []byte
}

// NewBlobCache creates a new LRU cache with the given capacity in bytes.
// If rc is provided, it is used to track memory usage.
func NewBlobCache(capacity int64, rc *resource.Controller) *BlobCache {
	return &BlobCache{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns a cached blob. The slice must be treated as read-only.
func (c *BlobCache) Get(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[name]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*blobEntry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a blob. Blobs larger than the capacity, or denied by the
// resource controller, are not cached.
func (c *BlobCache) Set(name string, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[name]; ok {
		c.removeElement(ent)
	}

	itemSize := int64(len(b))
	if itemSize > c.capacity {
		return
	}

	// Evict locally first so the controller gets memory back before we ask for it.
	for c.size+itemSize > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	if !c.rc.TryAcquireMemory(itemSize) {
		return
	}

	element := c.evictList.PushFront(&blobEntry{name: name, value: b})
	c.items[name] = element
	c.size += itemSize
}

// Invalidate removes a blob.
func (c *BlobCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[name]; ok {
		c.removeElement(ent)
	}
}

// Stats returns the hit and miss counters.
func (c *BlobCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current size of the cache in bytes.
func (c *BlobCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached blobs.
func (c *BlobCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *BlobCache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*blobEntry)
	delete(c.items, kv.name)
	itemSize := int64(len(kv.value))
	c.size -= itemSize
	c.rc.ReleaseMemory(itemSize)
}

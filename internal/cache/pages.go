package cache

import (
	"cmp"
	"container/list"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pagelog/internal/resource"
	"github.com/hupe1980/pagelog/page"
	"github.com/hupe1980/pagelog/pageid"
)

// PageStats is a snapshot of PageCache counters.
type PageStats struct {
	Pages     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// PageCache holds the loaded pages of one topic in LRU order.
// Removing a page releases its payload bytes to the resource controller;
// callers acquire memory as pages grow.
type PageCache struct {
	mu      sync.Mutex
	items   map[pageid.PageID]*list.Element
	lruList *list.List
	rc      *resource.Controller

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewPageCache creates an empty page cache.
func NewPageCache(rc *resource.Controller) *PageCache {
	return &PageCache{
		items:   make(map[pageid.PageID]*list.Element),
		lruList: list.New(),
		rc:      rc,
	}
}

// Get returns a cached page and marks it most recently used.
func (c *PageCache) Get(id pageid.PageID) (*page.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[id]; ok {
		c.hits.Add(1)
		c.lruList.MoveToFront(ent)
		return ent.Value.(*page.Page), true
	}
	c.misses.Add(1)
	return nil, false
}

// GetOrCreate returns the cached page or inserts the page built by create.
// created reports whether create was called.
func (c *PageCache) GetOrCreate(id pageid.PageID, create func() *page.Page) (p *page.Page, created bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[id]; ok {
		c.hits.Add(1)
		c.lruList.MoveToFront(ent)
		return ent.Value.(*page.Page), false
	}
	c.misses.Add(1)

	p = create()
	c.items[id] = c.lruList.PushFront(p)
	return p, true
}

// Remove drops a page regardless of its persistence state.
func (c *PageCache) Remove(id pageid.PageID) (*page.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return c.removeElement(ent), true
}

// Pages returns the cached pages in ascending id order.
func (c *PageCache) Pages() []*page.Page {
	c.mu.Lock()
	pages := make([]*page.Page, 0, len(c.items))
	for _, ent := range c.items {
		pages = append(pages, ent.Value.(*page.Page))
	}
	c.mu.Unlock()

	slices.SortFunc(pages, func(a, b *page.Page) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return pages
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// EvictIdle removes pages not accessed since now-maxAge that have nothing
// left to persist. It returns the payload bytes released and the evicted ids.
func (c *PageCache) EvictIdle(now time.Time, maxAge time.Duration) (int64, []pageid.PageID) {
	deadline := now.Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		freed   int64
		evicted []pageid.PageID
	)
	for ent := c.lruList.Back(); ent != nil; {
		prev := ent.Prev()
		p := ent.Value.(*page.Page)
		if p.LastAccess().Before(deadline) && !p.HasPendingPersist() {
			freed += p.Size()
			c.removeElement(ent)
			c.evictions.Add(1)
			evicted = append(evicted, p.ID())
		}
		ent = prev
	}
	return freed, evicted
}

// EvictBytes removes least recently used pages without pending persistence
// until at least want payload bytes have been released. keep is never
// evicted. It returns the bytes released and the evicted ids.
func (c *PageCache) EvictBytes(want int64, keep pageid.PageID) (int64, []pageid.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		freed   int64
		evicted []pageid.PageID
	)
	for ent := c.lruList.Back(); ent != nil && freed < want; {
		prev := ent.Prev()
		p := ent.Value.(*page.Page)
		if p.ID() != keep && !p.HasPendingPersist() {
			freed += p.Size()
			c.removeElement(ent)
			c.evictions.Add(1)
			evicted = append(evicted, p.ID())
		}
		ent = prev
	}
	return freed, evicted
}

// Stats returns the cache counters.
func (c *PageCache) Stats() PageStats {
	return PageStats{
		Pages:     c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *PageCache) removeElement(e *list.Element) *page.Page {
	c.lruList.Remove(e)
	p := e.Value.(*page.Page)
	delete(c.items, p.ID())
	c.rc.ReleaseMemory(p.Size())
	return p
}

package pagelog

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pagelog/blobstore"
	"github.com/hupe1980/pagelog/bucket"
	"github.com/hupe1980/pagelog/codec"
	"github.com/hupe1980/pagelog/internal/cache"
	"github.com/hupe1980/pagelog/internal/resource"
	"github.com/hupe1980/pagelog/intervalset"
	"github.com/hupe1980/pagelog/message"
	"github.com/hupe1980/pagelog/page"
	"github.com/hupe1980/pagelog/pageid"
)

// Topic is the paged message store of a single topic.
//
// A Topic is safe for concurrent use. It expects to be the only writer of
// its blobs.
type Topic struct {
	name    string
	logger  *Logger
	metrics MetricsCollector
	store   blobstore.BlobStore
	codec   codec.Codec
	rc      *resource.Controller
	pages   *cache.PageCache
	now     func() time.Time

	// mu guards page creation and removal plus the fields below.
	mu       sync.Mutex
	stored   map[pageid.PageID]struct{} // pages with at least one blob
	restored map[pageid.PageID]struct{} // cached pages whose blobs were read
	gcFloor  int64
	closed   atomic.Bool

	persistMu  sync.Mutex
	generation atomic.Int64
}

// Stats is a point-in-time view of a topic.
type Stats struct {
	Pages            int
	MemoryUsage      int64
	PersistQueueSize int64
	CacheHits        int64
	CacheMisses      int64
	Evictions        int64
}

// Open opens the topic name, creating it on first use. Existing blobs of
// the topic are listed but their pages are read lazily.
func Open(ctx context.Context, name string, optFns ...Option) (*Topic, error) {
	if err := ValidateTopicName(name); err != nil {
		return nil, err
	}

	o := applyOptions(optFns)

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		MaxPersistWorkers:  o.maxPersistWorkers,
		PersistBytesPerSec: o.persistBytesPerSec,
	})

	store := o.store
	if o.cacheCapacity > 0 {
		store = blobstore.NewCachingStore(store, o.cacheCapacity, rc)
	}

	t := &Topic{
		name:     name,
		logger:   o.logger.WithTopic(name),
		metrics:  o.metricsCollector,
		store:    store,
		codec:    o.codec,
		rc:       rc,
		pages:    cache.NewPageCache(rc),
		now:      o.now,
		stored:   make(map[pageid.PageID]struct{}),
		restored: make(map[pageid.PageID]struct{}),
	}

	names, err := store.List(ctx, topicPrefix(name))
	if err != nil {
		return nil, fmt.Errorf("pagelog: list topic %q: %w", name, err)
	}
	for _, n := range names {
		ref, err := parseBlobName(name, n)
		if err != nil {
			t.logger.WarnContext(ctx, "ignoring unknown blob", "blob", n)
			continue
		}
		t.stored[ref.Page] = struct{}{}
		if ref.Generation > t.generation.Load() {
			t.generation.Store(ref.Generation)
		}
	}

	t.logger.InfoContext(ctx, "topic opened",
		"stored_pages", len(t.stored),
		"codec", t.codec.Name(),
	)
	return t, nil
}

// Name returns the topic name.
func (t *Topic) Name() string { return t.name }

// Publish stores records in their pages and marks them pending persistence.
// A record with an id that is already stored replaces it. Records are
// copied, so callers may reuse their buffers.
//
// All ids are validated before anything is stored. When the memory limit is
// hit, records preceding the failing one stay stored.
func (t *Topic) Publish(ctx context.Context, records ...message.Record) error {
	start := time.Now()
	bytes, err := t.publish(ctx, records)
	t.metrics.RecordPublish(len(records), bytes, time.Since(start), err)
	t.logger.LogPublish(ctx, len(records), bytes, err)
	return err
}

func (t *Topic) publish(ctx context.Context, records []message.Record) (int64, error) {
	for i := range records {
		if records[i].ID < 0 {
			return 0, &ErrInvalidMessageID{ID: records[i].ID}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return 0, ErrClosed
	}

	var bytes int64
	for i := range records {
		rec := records[i].Clone()
		id := pageid.FromMessageID(rec.ID)
		size := rec.Size()

		if err := t.reserveLocked(ctx, size, id); err != nil {
			return bytes, fmt.Errorf("pagelog: publish %d: %w", rec.ID, err)
		}

		p := t.pageLocked(id)
		before := p.Size()
		p.AddMessage(rec)
		t.rc.ReleaseMemory(before + size - p.Size())
		bytes += size
	}
	return bytes, nil
}

// Get returns the state of message id, reading its page from the blob store
// if it is not in memory.
func (t *Topic) Get(ctx context.Context, id int64) (message.State, error) {
	if t.closed.Load() {
		return message.State{}, ErrClosed
	}
	if id < 0 {
		return message.State{}, &ErrInvalidMessageID{ID: id}
	}

	pid := pageid.FromMessageID(id)

	t.mu.Lock()
	p, cached := t.pages.Get(pid)
	_, restored := t.restored[pid]
	floor := t.gcFloor
	t.mu.Unlock()

	if cached {
		st := p.GetMessage(id)
		if restored || !st.IsMissing() {
			return st, nil
		}
	}
	if id < floor {
		return message.GarbageCollectedState(), nil
	}

	p, err := t.loadPage(ctx, pid)
	if err != nil {
		return message.State{}, err
	}
	return p.GetMessage(id), nil
}

// Page returns the page with the given id, reading it from the blob store if
// it is not in memory.
func (t *Topic) Page(ctx context.Context, id pageid.PageID) (*page.Page, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	if id < 0 {
		return nil, fmt.Errorf("pagelog: page %d: %w", id, intervalset.ErrInvalidID)
	}

	t.mu.Lock()
	p, cached := t.pages.Get(id)
	_, restored := t.restored[id]
	t.mu.Unlock()

	if cached && restored {
		return p, nil
	}
	return t.loadPage(ctx, id)
}

// NewBucket returns an empty delivery bucket over the page with the given id.
// The page is created in memory if needed; its blobs are not read.
func (t *Topic) NewBucket(id pageid.PageID) (*bucket.DeliveryBucket, error) {
	if id < 0 {
		return nil, fmt.Errorf("pagelog: page %d: %w", id, intervalset.ErrInvalidID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return nil, ErrClosed
	}
	return bucket.New(t.pageLocked(id)), nil
}

// EvictIdle drops pages not accessed within maxAge that have nothing left to
// persist, and returns their ids.
func (t *Topic) EvictIdle(ctx context.Context, maxAge time.Duration) []pageid.PageID {
	t.mu.Lock()
	defer t.mu.Unlock()

	freed, evicted := t.pages.EvictIdle(t.now(), maxAge)
	t.forgetLocked(evicted)
	if len(evicted) > 0 {
		t.metrics.RecordEviction(len(evicted), freed)
		t.logger.LogEviction(ctx, "idle", len(evicted), freed)
	}
	return evicted
}

// PagesInfo describes every page in memory, in ascending page order.
func (t *Topic) PagesInfo() []page.Info {
	pages := t.pages.Pages()
	infos := make([]page.Info, 0, len(pages))
	for _, p := range pages {
		infos = append(infos, p.Info())
	}
	return infos
}

// PersistQueueSize returns the number of messages waiting to be persisted.
func (t *Topic) PersistQueueSize() int64 {
	var n int64
	for _, p := range t.pages.Pages() {
		n += p.PendingPersistCount()
	}
	return n
}

// Stats returns a snapshot of the topic counters.
func (t *Topic) Stats() Stats {
	cs := t.pages.Stats()
	return Stats{
		Pages:            cs.Pages,
		MemoryUsage:      t.rc.MemoryUsage(),
		PersistQueueSize: t.PersistQueueSize(),
		CacheHits:        cs.Hits,
		CacheMisses:      cs.Misses,
		Evictions:        cs.Evictions,
	}
}

// Close persists pending messages and rejects further use of the topic.
// Closing a closed topic is a no-op.
func (t *Topic) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed.Load() {
		t.mu.Unlock()
		return nil
	}
	t.closed.Store(true)
	t.mu.Unlock()

	start := time.Now()
	_, err := t.persist(ctx)
	t.logger.LogClose(ctx, time.Since(start), err)
	return err
}

// loadPage reads every blob of page id and merges the records into the
// cached page.
func (t *Topic) loadPage(ctx context.Context, id pageid.PageID) (*page.Page, error) {
	start := time.Now()
	recs, blobs, err := t.readPage(ctx, id)
	t.metrics.RecordLoad(len(recs), time.Since(start), err)
	t.logger.LogLoad(ctx, int64(id), blobs, len(recs), err)
	if err != nil {
		return nil, &ErrLoadPage{PageID: id, cause: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gcFloor > id.FirstMessageID() {
		recs = slices.DeleteFunc(recs, func(r message.Record) bool { return r.ID < t.gcFloor })
	}

	var size int64
	for i := range recs {
		size += recs[i].Size()
	}
	if err := t.reserveLocked(ctx, size, id); err != nil {
		return nil, &ErrLoadPage{PageID: id, cause: err}
	}

	p := t.pageLocked(id)
	before := p.Size()
	p.Restore(recs, id.FirstMessageID(), id.LastMessageID())
	t.rc.ReleaseMemory(before + size - p.Size())
	t.restored[id] = struct{}{}
	return p, nil
}

// readPage returns the records of page id in ascending order. Blobs are
// applied in name order, so a record written later replaces older copies.
func (t *Topic) readPage(ctx context.Context, id pageid.PageID) ([]message.Record, int, error) {
	t.mu.Lock()
	_, ok := t.stored[id]
	t.mu.Unlock()
	if !ok {
		return nil, 0, nil
	}

	names, err := t.store.List(ctx, pagePrefix(t.name, id))
	if err != nil {
		return nil, 0, err
	}

	latest := make(map[int64]message.Record)
	blobs := 0
	for _, name := range names {
		if _, err := parseBlobName(t.name, name); err != nil {
			continue
		}
		data, err := blobstore.ReadAll(ctx, t.store, name)
		if err != nil {
			return nil, blobs, fmt.Errorf("read %s: %w", name, err)
		}
		recs, err := codec.Decode(data)
		if err != nil {
			return nil, blobs, fmt.Errorf("decode %s: %w", name, err)
		}
		for _, r := range recs {
			latest[r.ID] = r
		}
		blobs++
	}

	recs := slices.SortedFunc(maps.Values(latest), func(a, b message.Record) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return recs, blobs, nil
}

// pageLocked returns the cached page id, creating an empty one if needed.
// A new page without blobs counts as restored.
func (t *Topic) pageLocked(id pageid.PageID) *page.Page {
	p, created := t.pages.GetOrCreate(id, func() *page.Page {
		return page.New(id, page.WithLogger(t.logger.Logger), page.WithClock(t.now))
	})
	if created {
		if _, ok := t.stored[id]; !ok {
			t.restored[id] = struct{}{}
		}
	}
	return p
}

// reserveLocked accounts n payload bytes, evicting persisted pages other
// than keep when the memory limit is reached.
func (t *Topic) reserveLocked(ctx context.Context, n int64, keep pageid.PageID) error {
	if t.rc.TryAcquireMemory(n) {
		return nil
	}

	freed, evicted := t.pages.EvictBytes(n, keep)
	t.forgetLocked(evicted)
	if len(evicted) > 0 {
		t.metrics.RecordEviction(len(evicted), freed)
		t.logger.LogEviction(ctx, "memory", len(evicted), freed)
	}

	if t.rc.TryAcquireMemory(n) {
		return nil
	}
	return fmt.Errorf("%w: need %d bytes, %d of %d in use",
		ErrMemoryLimitExceeded, n, t.rc.MemoryUsage(), t.rc.MemoryLimit())
}

func (t *Topic) forgetLocked(ids []pageid.PageID) {
	for _, id := range ids {
		delete(t.restored, id)
	}
}

// nextGeneration returns a blob generation greater than any used before.
func (t *Topic) nextGeneration() int64 {
	now := t.now().UnixNano()
	for {
		last := t.generation.Load()
		next := max(now, last+1)
		if t.generation.CompareAndSwap(last, next) {
			return next
		}
	}
}

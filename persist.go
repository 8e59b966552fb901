package pagelog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pagelog/message"
	"github.com/hupe1980/pagelog/page"
)

// PersistStats summarizes a Persist call.
type PersistStats struct {
	// Pages is the number of pages written.
	Pages int
	// FailedPages is the number of pages whose write failed.
	FailedPages int
	// Records is the number of records written.
	Records int
	// Bytes is the encoded size of the written blobs.
	Bytes    int64
	Duration time.Duration
}

// Persist writes the pending messages of every page to the blob store, one
// new blob per page. Pages are written concurrently up to the configured
// worker count and throttled by the configured IO limit.
//
// A page whose write fails keeps its messages pending for the next call.
// The first failure cancels the remaining writes and is returned as
// *ErrPersistPage.
func (t *Topic) Persist(ctx context.Context) (PersistStats, error) {
	if t.closed.Load() {
		return PersistStats{}, ErrClosed
	}
	return t.persist(ctx)
}

func (t *Topic) persist(ctx context.Context) (PersistStats, error) {
	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	start := time.Now()

	var (
		mu         sync.Mutex
		stats      PersistStats
		acquireErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range t.pages.Pages() {
		if !p.HasPendingPersist() {
			continue
		}
		if err := t.rc.AcquireWorker(gctx); err != nil {
			acquireErr = err
			break
		}
		g.Go(func() error {
			defer t.rc.ReleaseWorker()

			records, bytes, err := t.persistPage(gctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.FailedPages++
				return err
			}
			if records > 0 {
				stats.Pages++
				stats.Records += records
				stats.Bytes += int64(bytes)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = acquireErr
	}
	stats.Duration = time.Since(start)

	t.metrics.RecordPersist(stats, err)
	t.logger.LogPersistRound(ctx, stats, err)
	return stats, err
}

// persistPage writes the pending records of p as one blob. It returns the
// number of records and encoded bytes written.
func (t *Topic) persistPage(ctx context.Context, p *page.Page) (int, int, error) {
	recs := p.GetMessagesToPersist()
	if len(recs) == 0 {
		p.Persisted()
		return 0, 0, nil
	}

	ref := blobRef{
		Page:       p.ID(),
		Generation: t.nextGeneration(),
		MinID:      recs[0].ID,
		MaxID:      recs[len(recs)-1].ID,
		Format:     t.codec.Name(),
	}
	name := ref.name(t.name)

	n, err := t.writeBlob(ctx, name, recs)
	t.logger.LogPersist(ctx, name, len(recs), n, err)
	if err != nil {
		p.NotPersisted()
		return 0, 0, &ErrPersistPage{PageID: p.ID(), Blob: name, cause: err}
	}
	// The page must be known as stored before Persisted makes it evictable.
	t.mu.Lock()
	t.stored[p.ID()] = struct{}{}
	t.mu.Unlock()

	p.Persisted()

	return len(recs), n, nil
}

func (t *Topic) writeBlob(ctx context.Context, name string, recs []message.Record) (int, error) {
	data, err := t.codec.Encode(recs)
	if err != nil {
		return 0, err
	}
	if err := t.rc.WaitIO(ctx, len(data)); err != nil {
		return 0, err
	}
	if err := t.store.Put(ctx, name, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

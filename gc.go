package pagelog

import (
	"context"

	"github.com/hupe1980/pagelog/pageid"
)

// GCStats summarizes a GC call.
type GCStats struct {
	// RequestedMinID is the minID passed to GC.
	RequestedMinID int64
	// MinID is the bound actually applied: RequestedMinID lowered to the
	// smallest id still waiting to be persisted.
	MinID int64
	// FreedBytes is the payload released from memory.
	FreedBytes int64
	// DroppedPages lists pages removed because every id in them is below MinID.
	DroppedPages []pageid.PageID
}

// GC evicts the payload of every message below minID, keeping a tombstone so
// Get reports it as garbage collected. Messages not yet persisted are never
// collected: the bound is lowered to the smallest pending id. Pages lying
// entirely below the bound are dropped from memory.
//
// Blobs in the store are left untouched.
func (t *Topic) GC(ctx context.Context, minID int64) (GCStats, error) {
	t.mu.Lock()

	if t.closed.Load() {
		t.mu.Unlock()
		return GCStats{}, ErrClosed
	}

	pages := t.pages.Pages()

	floor := minID
	for _, p := range pages {
		if id, ok := p.MinUnpersistedID(); ok {
			floor = min(floor, id)
		}
	}

	stats := GCStats{RequestedMinID: minID, MinID: floor}
	for _, p := range pages {
		if p.FirstMessageID() >= floor {
			break
		}
		before := p.Size()
		reclaim := p.GCMessages(floor)
		freed := before - p.Size()
		t.rc.ReleaseMemory(freed)
		stats.FreedBytes += freed

		if reclaim {
			t.pages.Remove(p.ID())
			delete(t.restored, p.ID())
			stats.DroppedPages = append(stats.DroppedPages, p.ID())
		}
	}
	t.gcFloor = max(t.gcFloor, floor)

	t.mu.Unlock()

	t.metrics.RecordGC(stats.FreedBytes, len(stats.DroppedPages))
	t.logger.LogGC(ctx, stats)
	return stats, nil
}

package page

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/pagelog/intervalset"
	"github.com/hupe1980/pagelog/message"
)

// Info is a point-in-time view of a page used for diagnostics.
type Info struct {
	ID               int64
	FirstMessageID   int64
	LastMessageID    int64
	Size             int64
	Count            int
	Loaded           []intervalset.Range
	ToPersist        []intervalset.Range
	BeingPersisted   []intervalset.Range
	GarbageCollected []intervalset.Range
	Missing          []intervalset.Range
	Created          time.Time
	LastAccess       time.Time
}

// unit is the state shared by Page and SubPage; only the id bounds differ.
type unit struct {
	mu sync.RWMutex

	first int64
	last  int64

	messages       map[int64]*message.Record
	loaded         *intervalset.Set
	gced           *intervalset.Set
	missing        *intervalset.Set
	toPersist      *intervalset.Set
	beingPersisted *intervalset.Set
	size           int64

	created    time.Time
	lastAccess atomic.Int64

	logger *slog.Logger
	now    func() time.Time
}

func (u *unit) init(first, last int64, o options) {
	u.first = first
	u.last = last
	u.messages = make(map[int64]*message.Record)
	u.loaded = intervalset.New()
	u.gced = intervalset.New()
	u.missing = intervalset.New()
	u.toPersist = intervalset.New()
	u.beingPersisted = intervalset.New()
	u.logger = o.logger
	u.now = o.now
	u.created = o.now()
	u.touch()
}

func (u *unit) touch() {
	u.lastAccess.Store(u.now().UnixNano())
}

// FirstMessageID returns the lowest id the unit accepts.
func (u *unit) FirstMessageID() int64 { return u.first }

// LastMessageID returns the highest id the unit accepts.
func (u *unit) LastMessageID() int64 { return u.last }

// Contains reports whether id falls within the unit bounds.
func (u *unit) Contains(id int64) bool { return id >= u.first && id <= u.last }

// AddMessage stores rec as Loaded and marks it pending persistence.
// An existing record with the same id is replaced. If the id is currently
// being persisted it moves back to pending, since the in-flight write holds
// the old content.
//
// Ids outside the unit bounds are logged and ignored; AddMessage then
// returns false and leaves the state untouched.
func (u *unit) AddMessage(rec message.Record) bool {
	if !u.Contains(rec.ID) {
		u.logger.Warn("ignoring message outside page bounds",
			"id", rec.ID,
			"first", u.first,
			"last", u.last,
		)
		return false
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if old, ok := u.messages[rec.ID]; ok {
		u.size -= old.Size()
	} else {
		u.mustEnqueue(u.loaded, rec.ID)
	}
	u.messages[rec.ID] = &rec
	u.size += rec.Size()

	u.gced.Remove(rec.ID)
	u.missing.Remove(rec.ID)
	u.beingPersisted.Remove(rec.ID)
	if !u.toPersist.Contains(rec.ID) {
		u.mustEnqueue(u.toPersist, rec.ID)
	}

	u.touch()
	return true
}

// GetMessage returns the state of id. The returned record is shared with
// the page and must not be modified.
func (u *unit) GetMessage(id int64) message.State {
	u.mu.RLock()
	defer u.mu.RUnlock()

	u.touch()
	if rec, ok := u.messages[id]; ok {
		return message.LoadedState(rec)
	}
	if u.gced.Contains(id) {
		return message.GarbageCollectedState()
	}
	return message.MissingState()
}

// LoadedFrom returns up to limit loaded records with id >= fromID in
// ascending id order. A limit <= 0 returns all of them.
func (u *unit) LoadedFrom(fromID int64, limit int) []*message.Record {
	u.mu.RLock()
	defer u.mu.RUnlock()

	u.touch()
	_, tail := u.loaded.Split(fromID - 1)
	var out []*message.Record
	for id := range tail.All() {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, u.messages[id])
	}
	return out
}

// GCMessages evicts the payload of every loaded id below minID and keeps a
// tombstone for each. Ids >= minID are never touched. It reports whether
// minID has reached the first id of the next unit, i.e. the whole unit may
// be reclaimed by its owner.
//
// Pending persistence is not consulted; callers pick a minID below the
// lowest id still waiting to be persisted.
func (u *unit) GCMessages(minID int64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	for {
		id, ok := u.loaded.Peek()
		if !ok || id >= minID {
			break
		}
		u.loaded.Dequeue()

		rec := u.messages[id]
		delete(u.messages, id)
		u.size -= rec.Size()
		u.mustEnqueue(u.gced, id)
	}

	return minID > u.last
}

// GetMessagesToPersist drains the pending set in ascending order and returns
// the records still loaded. Their ids move to the being-persisted set until
// Persisted or NotPersisted is called. A second call without new messages
// returns nothing.
func (u *unit) GetMessagesToPersist() []message.Record {
	u.mu.Lock()
	defer u.mu.Unlock()

	var out []message.Record
	for id := range u.toPersist.Drain() {
		rec, ok := u.messages[id]
		if !ok {
			continue
		}
		out = append(out, *rec)
		u.mustEnqueue(u.beingPersisted, id)
	}
	return out
}

// Persisted acknowledges the durable write of the last drained batch.
func (u *unit) Persisted() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.beingPersisted.Clear()
}

// NotPersisted returns the ids of the failed batch to the pending set.
func (u *unit) NotPersisted() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, r := range u.beingPersisted.Ranges() {
		if err := u.toPersist.EnqueueRange(r); err != nil {
			u.logger.Error("restoring pending range failed", "range", r.String(), "error", err)
		}
	}
	u.beingPersisted.Clear()
}

// Restore loads records read back from durable storage. Restored records
// are not marked pending and never replace a record already in memory.
// Ids within [fromID, toID] that are neither loaded nor restored are marked
// Missing. It returns the number of records loaded.
func (u *unit) Restore(records []message.Record, fromID, toID int64) int {
	fromID = max(fromID, u.first)
	toID = min(toID, u.last)

	u.mu.Lock()
	defer u.mu.Unlock()

	n := 0
	for i := range records {
		rec := records[i]
		if !u.Contains(rec.ID) {
			u.logger.Warn("ignoring restored message outside page bounds",
				"id", rec.ID,
				"first", u.first,
				"last", u.last,
			)
			continue
		}
		if _, ok := u.messages[rec.ID]; ok {
			continue
		}
		u.messages[rec.ID] = &rec
		u.size += rec.Size()
		u.mustEnqueue(u.loaded, rec.ID)
		u.gced.Remove(rec.ID)
		u.missing.Remove(rec.ID)
		n++
	}

	if fromID <= toID {
		gap := roaring64.New()
		gap.AddRange(uint64(fromID), uint64(toID)+1)
		gap.AndNot(u.loaded.ToBitmap())
		gap.AndNot(u.gced.ToBitmap())
		gap.Or(u.missing.ToBitmap())
		u.missing = intervalset.FromBitmap(gap)
	}

	u.touch()
	return n
}

// SizeAndAmount returns the payload bytes and number of loaded records.
func (u *unit) SizeAndAmount() (int64, int) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.size, len(u.messages)
}

// Size returns the sum of loaded payload lengths.
func (u *unit) Size() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.size
}

// Count returns the number of loaded records.
func (u *unit) Count() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.messages)
}

// HasPendingPersist reports whether any id is pending or being persisted.
func (u *unit) HasPendingPersist() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return !u.toPersist.IsEmpty() || !u.beingPersisted.IsEmpty()
}

// PendingPersistCount returns the number of ids pending or being persisted.
func (u *unit) PendingPersistCount() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.toPersist.Len() + u.beingPersisted.Len()
}

// MinUnpersistedID returns the lowest id pending or being persisted.
func (u *unit) MinUnpersistedID() (int64, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	a, okA := u.toPersist.Min()
	b, okB := u.beingPersisted.Min()
	switch {
	case okA && okB:
		return min(a, b), true
	case okA:
		return a, true
	default:
		return b, okB
	}
}

// Created returns the creation time.
func (u *unit) Created() time.Time { return u.created }

// LastAccess returns the time of the last read or write.
func (u *unit) LastAccess() time.Time {
	return time.Unix(0, u.lastAccess.Load())
}

func (u *unit) info(id int64) Info {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return Info{
		ID:               id,
		FirstMessageID:   u.first,
		LastMessageID:    u.last,
		Size:             u.size,
		Count:            len(u.messages),
		Loaded:           u.loaded.Ranges(),
		ToPersist:        u.toPersist.Ranges(),
		BeingPersisted:   u.beingPersisted.Ranges(),
		GarbageCollected: u.gced.Ranges(),
		Missing:          u.missing.Ranges(),
		Created:          u.created,
		LastAccess:       u.LastAccess(),
	}
}

// mustEnqueue adds id to s. The page only enqueues ids it has just checked
// to be absent, so a failure is a bookkeeping bug and gets logged.
func (u *unit) mustEnqueue(s *intervalset.Set, id int64) {
	if err := s.Enqueue(id); err != nil {
		u.logger.Error("page bookkeeping inconsistent", "id", id, "error", err)
	}
}

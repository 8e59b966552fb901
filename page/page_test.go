package page

import (
	"bytes"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pagelog/intervalset"
	"github.com/hupe1980/pagelog/message"
	"github.com/hupe1980/pagelog/pageid"
)

func rec(id int64, payload string) message.Record {
	return message.Record{ID: id, Payload: []byte(payload), Created: id}
}

func TestAddAndGetMessage(t *testing.T) {
	p := New(1)

	require.True(t, p.AddMessage(rec(100_000, "abc")))
	require.True(t, p.AddMessage(rec(100_005, "de")))

	st := p.GetMessage(100_000)
	require.True(t, st.IsLoaded())
	assert.Equal(t, "abc", string(st.Record.Payload))

	assert.True(t, p.GetMessage(100_001).IsMissing())
	assert.True(t, p.GetMessage(5).IsMissing())

	size, count := p.SizeAndAmount()
	assert.Equal(t, int64(5), size)
	assert.Equal(t, 2, count)
	assert.True(t, p.HasPendingPersist())
	assert.Equal(t, int64(2), p.PendingPersistCount())
}

func TestAddMessage_Overwrite(t *testing.T) {
	p := New(0)
	require.True(t, p.AddMessage(rec(7, "long payload")))
	require.True(t, p.AddMessage(rec(7, "short")))

	assert.Equal(t, int64(5), p.Size())
	assert.Equal(t, 1, p.Count())
	assert.Equal(t, "short", string(p.GetMessage(7).Record.Payload))

	recs := p.GetMessagesToPersist()
	require.Len(t, recs, 1)
	assert.Equal(t, "short", string(recs[0].Payload))
	assert.Equal(t, int64(1), p.PendingPersistCount())

	p.Persisted()
	assert.Equal(t, int64(0), p.PendingPersistCount())
}

func TestAddMessage_OutOfRange(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := New(1, WithLogger(logger))

	assert.False(t, p.AddMessage(rec(99_999, "x")))
	assert.False(t, p.AddMessage(rec(200_000, "x")))

	assert.Equal(t, int64(0), p.Size())
	assert.Equal(t, 0, p.Count())
	assert.False(t, p.HasPendingPersist())
	assert.Contains(t, buf.String(), "outside page bounds")
}

func TestGCMessages(t *testing.T) {
	p := New(0)
	for id := int64(0); id < 10; id++ {
		require.True(t, p.AddMessage(rec(id, "0123456789"[:id+1])))
	}
	sizeBefore := p.Size()

	reclaim := p.GCMessages(5)
	assert.False(t, reclaim)

	// 1+2+3+4+5 bytes evicted
	assert.Equal(t, sizeBefore-15, p.Size())
	for id := int64(0); id < 5; id++ {
		assert.True(t, p.GetMessage(id).IsGarbageCollected(), "id %d", id)
	}
	for id := int64(5); id < 10; id++ {
		assert.True(t, p.GetMessage(id).IsLoaded(), "id %d", id)
	}
	assert.True(t, p.GetMessage(20).IsMissing())
}

func TestGCMessages_Monotonic(t *testing.T) {
	p := New(0)
	for id := int64(0); id < 100; id += 3 {
		require.True(t, p.AddMessage(rec(id, "payload")))
	}

	for _, minID := range []int64{10, 5, 40, 40, 99} {
		p.GCMessages(minID)
		for id := int64(0); id < 100; id += 3 {
			if id >= minID {
				continue
			}
			assert.False(t, p.GetMessage(id).IsLoaded(), "id %d below %d still loaded", id, minID)
		}
	}
	assert.True(t, p.GetMessage(99).IsLoaded())
	assert.Equal(t, int64(len("payload")), p.Size())
}

func TestGCMessages_Reclaimable(t *testing.T) {
	p := New(2)
	require.True(t, p.AddMessage(rec(200_010, "x")))

	assert.False(t, p.GCMessages(pageid.PageID(2).LastMessageID()))
	assert.True(t, p.GCMessages(pageid.PageID(3).FirstMessageID()))
	assert.Equal(t, int64(0), p.Size())
	assert.True(t, p.GetMessage(200_010).IsGarbageCollected())
}

func TestLastPage(t *testing.T) {
	id := pageid.FromMessageID(math.MaxInt64)
	p := New(id)
	assert.Equal(t, int64(math.MaxInt64), p.LastMessageID())

	require.True(t, p.AddMessage(rec(math.MaxInt64, "end")))
	assert.True(t, p.GetMessage(math.MaxInt64).IsLoaded())

	recs := p.GetMessagesToPersist()
	require.Len(t, recs, 1)
	p.Persisted()

	assert.False(t, p.GCMessages(math.MaxInt64))
	assert.True(t, p.GetMessage(math.MaxInt64).IsLoaded())

	restored := New(id)
	assert.Equal(t, 1, restored.Restore(recs, id.FirstMessageID(), id.LastMessageID()))
	assert.True(t, restored.GetMessage(math.MaxInt64).IsLoaded())
	assert.True(t, restored.GetMessage(math.MaxInt64-1).IsMissing())
}

func TestPersistHandshake(t *testing.T) {
	p := New(0)
	for _, id := range []int64{3, 1, 2, 10} {
		require.True(t, p.AddMessage(rec(id, "x")))
	}

	recs := p.GetMessagesToPersist()
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{1, 2, 3, 10}, ids)

	assert.Empty(t, p.GetMessagesToPersist(), "second drain must be empty")

	info := p.Info()
	assert.Empty(t, info.ToPersist)
	assert.Equal(t, []intervalset.Range{{From: 1, To: 3}, {From: 10, To: 10}}, info.BeingPersisted)

	p.NotPersisted()
	info = p.Info()
	assert.Equal(t, []intervalset.Range{{From: 1, To: 3}, {From: 10, To: 10}}, info.ToPersist)
	assert.Empty(t, info.BeingPersisted)

	require.Len(t, p.GetMessagesToPersist(), 4)
	p.Persisted()
	assert.False(t, p.HasPendingPersist())
}

func TestPersistHandshake_WriteDuringPersist(t *testing.T) {
	p := New(0)
	require.True(t, p.AddMessage(rec(1, "old")))
	require.True(t, p.AddMessage(rec(2, "x")))
	require.Len(t, p.GetMessagesToPersist(), 2)

	require.True(t, p.AddMessage(rec(1, "new")))
	info := p.Info()
	assert.Equal(t, []intervalset.Range{{From: 1, To: 1}}, info.ToPersist)
	assert.Equal(t, []intervalset.Range{{From: 2, To: 2}}, info.BeingPersisted)

	p.Persisted()
	recs := p.GetMessagesToPersist()
	require.Len(t, recs, 1)
	assert.Equal(t, "new", string(recs[0].Payload))
}

func TestPersistHandshake_SkipsEvicted(t *testing.T) {
	p := New(0)
	require.True(t, p.AddMessage(rec(1, "a")))
	require.True(t, p.AddMessage(rec(2, "b")))
	p.GCMessages(2)

	recs := p.GetMessagesToPersist()
	require.Len(t, recs, 1)
	assert.Equal(t, int64(2), recs[0].ID)
}

func TestMinUnpersistedID(t *testing.T) {
	p := New(0)
	_, ok := p.MinUnpersistedID()
	assert.False(t, ok)

	require.True(t, p.AddMessage(rec(5, "a")))
	p.GetMessagesToPersist()
	require.True(t, p.AddMessage(rec(9, "a")))

	id, ok := p.MinUnpersistedID()
	require.True(t, ok)
	assert.Equal(t, int64(5), id)

	p.Persisted()
	id, ok = p.MinUnpersistedID()
	require.True(t, ok)
	assert.Equal(t, int64(9), id)
}

func TestRestore(t *testing.T) {
	p := New(0)
	require.True(t, p.AddMessage(rec(4, "memory")))
	p.GetMessagesToPersist()
	p.Persisted()

	n := p.Restore([]message.Record{rec(1, "a"), rec(2, "bb"), rec(4, "disk"), rec(200_000, "x")}, 0, 5)
	assert.Equal(t, 2, n)

	assert.True(t, p.GetMessage(1).IsLoaded())
	assert.Equal(t, "memory", string(p.GetMessage(4).Record.Payload))
	assert.True(t, p.GetMessage(0).IsMissing())
	assert.False(t, p.HasPendingPersist(), "restored records are already durable")

	info := p.Info()
	assert.Equal(t, []intervalset.Range{{From: 0, To: 0}, {From: 3, To: 3}, {From: 5, To: 5}}, info.Missing)
	assert.Equal(t, int64(len("memory")+3), info.Size)

	require.True(t, p.AddMessage(rec(3, "late")))
	assert.Equal(t, []intervalset.Range{{From: 0, To: 0}, {From: 5, To: 5}}, p.Info().Missing)
}

func TestLoadedFrom(t *testing.T) {
	p := New(0)
	for _, id := range []int64{1, 3, 5, 7, 9} {
		require.True(t, p.AddMessage(rec(id, "x")))
	}

	got := p.LoadedFrom(4, 2)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, int64(7), got[1].ID)

	assert.Len(t, p.LoadedFrom(0, 0), 5)
	assert.Empty(t, p.LoadedFrom(10, 0))
}

func TestLastAccess(t *testing.T) {
	now := time.Unix(1_000, 0)
	p := New(0, WithClock(func() time.Time { return now }))
	assert.True(t, p.Created().Equal(now))
	assert.True(t, p.LastAccess().Equal(now))

	now = now.Add(time.Minute)
	p.GetMessage(1)
	assert.True(t, p.LastAccess().Equal(now))
}

func TestSubPage(t *testing.T) {
	s := NewSubPage(pageid.SubPageID(150))
	assert.Equal(t, pageid.PageID(1), s.PageID())
	assert.Equal(t, int64(150_000), s.FirstMessageID())
	assert.Equal(t, int64(150_999), s.LastMessageID())

	assert.False(t, s.AddMessage(rec(151_000, "x")))
	require.True(t, s.AddMessage(rec(150_999, "x")))

	assert.False(t, s.GCMessages(150_999))
	assert.True(t, s.GCMessages(151_000))
	assert.Equal(t, int64(150), s.Info().ID)
}

func TestConcurrentAccess(t *testing.T) {
	p := New(0)
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				id := int64(w*1_000 + i)
				p.AddMessage(rec(id, "payload"))
				p.GetMessage(id)
				if i%50 == 0 {
					p.GetMessagesToPersist()
					p.Persisted()
				}
			}
		}(w)
	}
	for r := 0; r < 2; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = p.Info()
				p.SizeAndAmount()
			}
		}()
	}
	wg.Wait()

	size, count := p.SizeAndAmount()
	assert.Equal(t, 2_000, count)
	assert.Equal(t, int64(2_000*len("payload")), size)
}

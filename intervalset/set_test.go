package intervalset

import (
	"errors"
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pagelog/testutil"
)

func requireInvariant(t *testing.T, s *Set) {
	t.Helper()
	for i, r := range s.ranges {
		require.LessOrEqual(t, r.From, r.To, "empty range %s at %d", r, i)
		if i > 0 {
			require.Greater(t, r.From-s.ranges[i-1].To, int64(1), "ranges %s and %s touch or overlap", s.ranges[i-1], r)
		}
	}
}

func TestEnqueue(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want []Range
	}{
		{name: "ascending", ids: []int64{1, 2, 3}, want: []Range{{1, 3}}},
		{name: "descending", ids: []int64{3, 2, 1}, want: []Range{{1, 3}}},
		{name: "gaps", ids: []int64{1, 5, 9}, want: []Range{{1, 1}, {5, 5}, {9, 9}}},
		{name: "fill gap joins both", ids: []int64{1, 3, 2}, want: []Range{{1, 3}}},
		{name: "join previous", ids: []int64{1, 10, 2}, want: []Range{{1, 2}, {10, 10}}},
		{name: "join next", ids: []int64{1, 10, 9}, want: []Range{{1, 1}, {9, 10}}},
		{name: "insert into gap", ids: []int64{1, 10, 5}, want: []Range{{1, 1}, {5, 5}, {10, 10}}},
		{name: "prepend", ids: []int64{10, 11, 3}, want: []Range{{3, 3}, {10, 11}}},
		{name: "zero", ids: []int64{1, 0}, want: []Range{{0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for _, id := range tt.ids {
				require.NoError(t, s.Enqueue(id))
			}
			requireInvariant(t, s)
			assert.Equal(t, tt.want, s.Ranges())
			assert.Equal(t, int64(len(tt.ids)), s.Len())
		})
	}
}

func TestEnqueue_Duplicate(t *testing.T) {
	s, err := FromIDs(1, 2, 3, 7)
	require.NoError(t, err)
	before := s.Ranges()

	for _, id := range []int64{1, 2, 3, 7} {
		err := s.Enqueue(id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPrecondition))

		var dup *ErrDuplicateID
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, id, dup.ID)
	}
	assert.Equal(t, before, s.Ranges())
}

func TestEnqueue_Negative(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Enqueue(-1), ErrInvalidID)
	assert.True(t, s.IsEmpty())
}

func TestDequeue(t *testing.T) {
	s, err := FromIDs(5, 1, 3, 2)
	require.NoError(t, err)

	var got []int64
	for {
		id, ok := s.Dequeue()
		if !ok {
			break
		}
		got = append(got, id)
		requireInvariant(t, s)
	}
	assert.Equal(t, []int64{1, 2, 3, 5}, got)
	assert.True(t, s.IsEmpty())

	_, ok := s.Dequeue()
	assert.False(t, ok)

	single, err := FromIDs(7)
	require.NoError(t, err)
	id, ok := single.Dequeue()
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.True(t, single.IsEmpty())
	assert.Zero(t, single.NumRanges())
	_, ok = single.Peek()
	assert.False(t, ok)
}

func TestMaxInt64(t *testing.T) {
	const maxID = math.MaxInt64

	t.Run("enqueue twice", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Enqueue(maxID))

		var dup *ErrDuplicateID
		require.ErrorAs(t, s.Enqueue(maxID), &dup)

		require.NoError(t, s.Enqueue(5))
		requireInvariant(t, s)
		assert.Equal(t, []Range{{5, 5}, {maxID, maxID}}, s.Ranges())
	})

	t.Run("enqueue adjacent", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Enqueue(maxID))
		require.NoError(t, s.Enqueue(maxID-1))
		require.NoError(t, s.Enqueue(maxID-3))
		require.NoError(t, s.Enqueue(maxID-2))
		requireInvariant(t, s)
		assert.Equal(t, []Range{{maxID - 3, maxID}}, s.Ranges())
		assert.Equal(t, int64(4), s.Len())
	})

	t.Run("enqueue range", func(t *testing.T) {
		s := New()
		require.NoError(t, s.Enqueue(5))
		require.NoError(t, s.EnqueueRange(Range{From: 10, To: maxID}))
		requireInvariant(t, s)
		assert.Equal(t, []Range{{5, 5}, {10, maxID}}, s.Ranges())

		require.NoError(t, s.EnqueueRange(Range{From: 6, To: 9}))
		assert.Equal(t, []Range{{5, maxID}}, s.Ranges())
		assert.True(t, s.Contains(maxID))
	})

	t.Run("full range length saturates", func(t *testing.T) {
		s, err := FromRange(Range{From: 0, To: maxID})
		require.NoError(t, err)
		assert.Equal(t, int64(maxID), s.Len())
	})

	t.Run("remove and split", func(t *testing.T) {
		s, err := FromRange(Range{From: maxID - 2, To: maxID})
		require.NoError(t, err)
		assert.True(t, s.Remove(maxID))
		require.NoError(t, s.Enqueue(maxID))

		left, right := s.Split(maxID - 1)
		assert.Equal(t, []Range{{maxID - 2, maxID - 1}}, left.Ranges())
		assert.Equal(t, []Range{{maxID, maxID}}, right.Ranges())
	})

	t.Run("iterate to the end", func(t *testing.T) {
		s, err := FromRange(Range{From: maxID - 1, To: maxID})
		require.NoError(t, err)
		var got []int64
		for id := range s.All() {
			got = append(got, id)
		}
		assert.Equal(t, []int64{maxID - 1, maxID}, got)
	})

	t.Run("restore", func(t *testing.T) {
		s, err := Restore([]Range{{1, 2}, {maxID, maxID}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), s.Len())

		_, err = Restore([]Range{{maxID - 1, maxID - 1}, {maxID, maxID}})
		assert.ErrorIs(t, err, ErrUnordered)
	})
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name   string
		start  []Range
		remove int64
		found  bool
		want   []Range
	}{
		{name: "sole element", start: []Range{{1, 1}, {5, 6}}, remove: 1, found: true, want: []Range{{5, 6}}},
		{name: "left edge", start: []Range{{1, 5}}, remove: 1, found: true, want: []Range{{2, 5}}},
		{name: "right edge", start: []Range{{1, 5}}, remove: 5, found: true, want: []Range{{1, 4}}},
		{name: "interior", start: []Range{{1, 5}, {9, 9}}, remove: 3, found: true, want: []Range{{1, 2}, {4, 5}, {9, 9}}},
		{name: "in gap", start: []Range{{1, 2}, {5, 6}}, remove: 3, found: false, want: []Range{{1, 2}, {5, 6}}},
		{name: "above max", start: []Range{{1, 2}}, remove: 3, found: false, want: []Range{{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Restore(tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.found, s.Remove(tt.remove))
			requireInvariant(t, s)
			assert.Equal(t, tt.want, s.Ranges())
		})
	}
}

func TestEnqueueThenRemoveRestoresSet(t *testing.T) {
	s, err := Restore([]Range{{1, 3}, {6, 8}, {20, 30}})
	require.NoError(t, err)
	before := s.Clone()

	for _, id := range []int64{0, 4, 5, 9, 10, 19, 31, 100} {
		require.NoError(t, s.Enqueue(id))
		require.True(t, s.Remove(id))
		assert.True(t, before.Equal(s), "after enqueue/remove of %d: %s", id, s)
	}
}

func TestEnqueueRange(t *testing.T) {
	s := New()
	require.NoError(t, s.EnqueueRange(Range{100, 105}))
	require.NoError(t, s.EnqueueRange(Range{10, 20}))
	require.NoError(t, s.EnqueueRange(Range{30, 35}))
	require.NoError(t, s.EnqueueRange(Range{25, 40}))

	requireInvariant(t, s)
	assert.Equal(t, []Range{{10, 20}, {25, 40}, {100, 105}}, s.Ranges())
}

func TestEnqueueRange_Cases(t *testing.T) {
	tests := []struct {
		name  string
		start []Range
		add   Range
		want  []Range
	}{
		{name: "empty set", add: Range{3, 4}, want: []Range{{3, 4}}},
		{name: "touch left", start: []Range{{5, 9}}, add: Range{1, 4}, want: []Range{{1, 9}}},
		{name: "touch right", start: []Range{{5, 9}}, add: Range{10, 12}, want: []Range{{5, 12}}},
		{name: "bridge", start: []Range{{1, 3}, {7, 9}}, add: Range{4, 6}, want: []Range{{1, 9}}},
		{name: "absorb many", start: []Range{{1, 1}, {3, 3}, {5, 5}, {20, 21}}, add: Range{0, 10}, want: []Range{{0, 10}, {20, 21}}},
		{name: "contained", start: []Range{{1, 10}}, add: Range{3, 4}, want: []Range{{1, 10}}},
		{name: "overlap both", start: []Range{{1, 5}, {8, 12}, {30, 31}}, add: Range{4, 9}, want: []Range{{1, 12}, {30, 31}}},
		{name: "append", start: []Range{{1, 2}}, add: Range{9, 9}, want: []Range{{1, 2}, {9, 9}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Restore(tt.start)
			require.NoError(t, err)
			require.NoError(t, s.EnqueueRange(tt.add))
			requireInvariant(t, s)
			assert.Equal(t, tt.want, s.Ranges())
		})
	}
}

func TestEnqueueRange_Invalid(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.EnqueueRange(Range{5, 4}), ErrInvalidRange)
	assert.ErrorIs(t, s.EnqueueRange(Range{-2, 4}), ErrInvalidID)
	assert.True(t, s.IsEmpty())
}

func TestRestore_Invalid(t *testing.T) {
	_, err := Restore([]Range{{5, 4}})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Restore([]Range{{1, 4}, {5, 6}})
	assert.ErrorIs(t, err, ErrUnordered)

	_, err = Restore([]Range{{10, 14}, {1, 2}})
	assert.ErrorIs(t, err, ErrUnordered)
}

func TestAccessors(t *testing.T) {
	s, err := Restore([]Range{{3, 5}, {10, 10}})
	require.NoError(t, err)

	peek, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, int64(3), peek)

	maxID, ok := s.Max()
	require.True(t, ok)
	assert.Equal(t, int64(10), maxID)

	assert.Equal(t, int64(4), s.Len())
	assert.Equal(t, 2, s.NumRanges())
	assert.True(t, s.Contains(4))
	assert.False(t, s.Contains(6))
	assert.Equal(t, "[3-5, 10-10]", s.String())

	s.Clear()
	_, ok = s.Min()
	assert.False(t, ok)
	_, ok = s.Max()
	assert.False(t, ok)
}

func TestSplit(t *testing.T) {
	s, err := Restore([]Range{{1, 5}, {10, 20}})
	require.NoError(t, err)

	left, right := s.Split(12)
	assert.Equal(t, []Range{{1, 5}, {10, 12}}, left.Ranges())
	assert.Equal(t, []Range{{13, 20}}, right.Ranges())

	left, right = s.Split(7)
	assert.Equal(t, []Range{{1, 5}}, left.Ranges())
	assert.Equal(t, []Range{{10, 20}}, right.Ranges())

	left, right = s.Split(20)
	assert.Equal(t, int64(16), left.Len())
	assert.True(t, right.IsEmpty())

	// receiver untouched
	assert.Equal(t, []Range{{1, 5}, {10, 20}}, s.Ranges())
}

func TestDrain(t *testing.T) {
	s, err := FromIDs(4, 2, 3)
	require.NoError(t, err)

	var got []int64
	for id := range s.Drain() {
		got = append(got, id)
		if id == 3 {
			break
		}
	}
	assert.Equal(t, []int64{2, 3}, got)
	assert.Equal(t, []Range{{4, 4}}, s.Ranges())
}

// TestRandomizedAgainstBitmap replays random operations against a roaring
// bitmap and checks membership, length and the range invariant after each step.
func TestRandomizedAgainstBitmap(t *testing.T) {
	rng := testutil.NewRNG(42)
	s := New()
	oracle := roaring64.New()

	for step := 0; step < 20_000; step++ {
		switch op := rng.Intn(10); {
		case op < 5:
			id := rng.Int64n(500)
			err := s.Enqueue(id)
			if oracle.Contains(uint64(id)) {
				require.ErrorIs(t, err, ErrPrecondition)
			} else {
				require.NoError(t, err)
				oracle.Add(uint64(id))
			}
		case op < 7:
			id := rng.Int64n(500)
			require.Equal(t, oracle.Contains(uint64(id)), s.Remove(id))
			oracle.Remove(uint64(id))
		case op < 8:
			from := rng.Int64n(500)
			to := from + rng.Int64n(20)
			require.NoError(t, s.EnqueueRange(Range{From: from, To: to}))
			oracle.AddRange(uint64(from), uint64(to)+1)
		default:
			id, ok := s.Dequeue()
			require.Equal(t, !oracle.IsEmpty(), ok)
			if ok {
				require.Equal(t, oracle.Minimum(), uint64(id))
				oracle.Remove(uint64(id))
			}
		}

		requireInvariant(t, s)
		require.Equal(t, int64(oracle.GetCardinality()), s.Len())
	}

	assert.True(t, s.ToBitmap().Equals(oracle))
	assert.True(t, FromBitmap(oracle).Equal(s))
}

func TestRoundTripAnyOrder(t *testing.T) {
	ids := testutil.NewRNG(7).IDs(1_000, 5_000)

	s := New()
	for _, id := range ids {
		require.NoError(t, s.Enqueue(id))
	}

	var prev int64 = -1
	for id := range s.Drain() {
		require.Greater(t, id, prev)
		prev = id
	}
	assert.True(t, s.IsEmpty())
}

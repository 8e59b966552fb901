package intervalset

import (
	"iter"
	"math"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/pagelog/pageid"
)

// PageIDs is the part of a set that falls into one page.
type PageIDs struct {
	PageID pageid.PageID
	IDs    *Set
}

// SubPageIDs is the part of a set that falls into one sub-page.
type SubPageIDs struct {
	SubPageID pageid.SubPageID
	IDs       *Set
}

// SplitByPageID partitions the set at page boundaries and yields one
// non-empty set per page in ascending page order. The ranges are captured
// when SplitByPageID is called; pieces are built only as they are consumed.
func (s *Set) SplitByPageID() iter.Seq[PageIDs] {
	ranges := s.Ranges()
	return func(yield func(PageIDs) bool) {
		for unit, ids := range splitBy(ranges, pageid.PageSize) {
			if !yield(PageIDs{PageID: pageid.PageID(unit), IDs: ids}) {
				return
			}
		}
	}
}

// SplitBySubPageID is SplitByPageID at sub-page granularity.
func (s *Set) SplitBySubPageID() iter.Seq[SubPageIDs] {
	ranges := s.Ranges()
	return func(yield func(SubPageIDs) bool) {
		for unit, ids := range splitBy(ranges, pageid.SubPageSize) {
			if !yield(SubPageIDs{SubPageID: pageid.SubPageID(unit), IDs: ids}) {
				return
			}
		}
	}
}

func splitBy(ranges []Range, size int64) iter.Seq2[int64, *Set] {
	return func(yield func(int64, *Set) bool) {
		var (
			cur  *Set
			unit int64
		)
		for _, r := range ranges {
			for from := r.From; ; {
				u := from / size
				to := min(r.To, unitEnd(u, size))
				if cur != nil && u != unit {
					if !yield(unit, cur) {
						return
					}
					cur = nil
				}
				if cur == nil {
					cur, unit = New(), u
				}
				// Pieces of distinct source ranges never touch, so appending keeps the invariant.
				cur.ranges = append(cur.ranges, Range{From: from, To: to})
				if to == r.To {
					break
				}
				from = to + 1
			}
		}
		if cur != nil {
			yield(unit, cur)
		}
	}
}

// unitEnd returns the last id of unit u, clamped to math.MaxInt64.
func unitEnd(u, size int64) int64 {
	first := u * size
	if first > math.MaxInt64-(size-1) {
		return math.MaxInt64
	}
	return first + size - 1
}

// ToBitmap returns the set as a roaring bitmap.
func (s *Set) ToBitmap() *roaring64.Bitmap {
	bm := roaring64.New()
	for _, r := range s.ranges {
		bm.AddRange(uint64(r.From), uint64(r.To)+1)
	}
	return bm
}

// FromBitmap builds a set from a roaring bitmap.
func FromBitmap(bm *roaring64.Bitmap) *Set {
	s := New()
	it := bm.Iterator()
	for it.HasNext() {
		id := int64(it.Next())
		if n := len(s.ranges); n > 0 && id-s.ranges[n-1].To == 1 {
			s.ranges[n-1].To = id
			continue
		}
		s.ranges = append(s.ranges, Range{From: id, To: id})
	}
	return s
}

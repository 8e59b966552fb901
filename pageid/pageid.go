// Package pageid maps message ids onto fixed-size pages and sub-pages.
//
// The layout constants are part of the on-disk and wire format and must not
// change between releases.
package pageid

import (
	"iter"
	"math"
)

const (
	// PageSize is the number of message ids covered by one page.
	PageSize int64 = 100_000
	// SubPageSize is the number of message ids covered by one sub-page.
	SubPageSize int64 = 1_000
	// SubPagesPerPage is the number of sub-pages inside one page.
	SubPagesPerPage int64 = PageSize / SubPageSize
)

// PageID identifies a page of PageSize consecutive message ids.
type PageID int64

// FromMessageID returns the page that contains id.
func FromMessageID(id int64) PageID {
	return PageID(id / PageSize)
}

// FirstMessageID returns the lowest message id of the page.
func (p PageID) FirstMessageID() int64 {
	return int64(p) * PageSize
}

// LastMessageID returns the highest message id of the page, clamped to
// math.MaxInt64 for the last, partial page.
func (p PageID) LastMessageID() int64 {
	return lastOf(int64(p), PageSize)
}

// FirstMessageIDOfNextPage returns the lowest message id of page p+1,
// clamped to math.MaxInt64.
func (p PageID) FirstMessageIDOfNextPage() int64 {
	return nextOf(int64(p), PageSize)
}

// Contains reports whether id belongs to the page.
func (p PageID) Contains(id int64) bool {
	return id >= p.FirstMessageID() && id <= p.LastMessageID()
}

// FirstSubPageID returns the first sub-page of the page.
func (p PageID) FirstSubPageID() SubPageID {
	return SubPageID(int64(p) * SubPagesPerPage)
}

// MessageIDs yields every message id of the page in ascending order.
// The sequence may be iterated any number of times.
func (p PageID) MessageIDs() iter.Seq[int64] {
	return idRange(p.FirstMessageID(), p.LastMessageID())
}

// SubPageIDs yields the SubPagesPerPage sub-pages of the page in ascending order.
func (p PageID) SubPageIDs() iter.Seq[SubPageID] {
	first := p.FirstSubPageID()
	return func(yield func(SubPageID) bool) {
		for i := SubPageID(0); i < SubPageID(SubPagesPerPage); i++ {
			if !yield(first + i) {
				return
			}
		}
	}
}

// SubPageID identifies a sub-page of SubPageSize consecutive message ids.
type SubPageID int64

// SubPageFromMessageID returns the sub-page that contains id.
func SubPageFromMessageID(id int64) SubPageID {
	return SubPageID(id / SubPageSize)
}

// PageID returns the page that owns the sub-page.
func (s SubPageID) PageID() PageID {
	return PageID(int64(s) / SubPagesPerPage)
}

// FirstMessageID returns the lowest message id of the sub-page.
func (s SubPageID) FirstMessageID() int64 {
	return int64(s) * SubPageSize
}

// LastMessageID returns the highest message id of the sub-page, clamped to
// math.MaxInt64.
func (s SubPageID) LastMessageID() int64 {
	return lastOf(int64(s), SubPageSize)
}

// FirstMessageIDOfNextSubPage returns the lowest message id of sub-page s+1,
// clamped to math.MaxInt64.
func (s SubPageID) FirstMessageIDOfNextSubPage() int64 {
	return nextOf(int64(s), SubPageSize)
}

// Contains reports whether id belongs to the sub-page.
func (s SubPageID) Contains(id int64) bool {
	return id >= s.FirstMessageID() && id <= s.LastMessageID()
}

// MessageIDs yields every message id of the sub-page in ascending order.
func (s SubPageID) MessageIDs() iter.Seq[int64] {
	return idRange(s.FirstMessageID(), s.LastMessageID())
}

func lastOf(unit, size int64) int64 {
	first := unit * size
	if first > math.MaxInt64-(size-1) {
		return math.MaxInt64
	}
	return first + size - 1
}

func nextOf(unit, size int64) int64 {
	last := lastOf(unit, size)
	if last == math.MaxInt64 {
		return last
	}
	return last + 1
}

func idRange(from, to int64) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		if from > to {
			return
		}
		for id := from; ; id++ {
			if !yield(id) || id == to {
				return
			}
		}
	}
}

package intervalset

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Range is a closed, inclusive block of ids.
type Range struct {
	From int64
	To   int64
}

// Len returns the number of ids in the range, saturating at math.MaxInt64.
func (r Range) Len() int64 {
	if r.From > r.To {
		return 0
	}
	n := r.To - r.From
	if n == math.MaxInt64 {
		return n
	}
	return n + 1
}

// IsEmpty reports whether From > To.
func (r Range) IsEmpty() bool { return r.From > r.To }

// Contains reports whether id lies within the range.
func (r Range) Contains(id int64) bool { return id >= r.From && id <= r.To }

func (r Range) String() string {
	return strconv.FormatInt(r.From, 10) + "-" + strconv.FormatInt(r.To, 10)
}

// Set is an ordered set of ids stored as sorted, disjoint, non-adjacent ranges.
// The zero value is an empty set ready to use.
type Set struct {
	ranges []Range
}

// New returns an empty set.
func New() *Set {
	return &Set{}
}

// FromRange returns a set holding every id of r.
func FromRange(r Range) (*Set, error) {
	s := New()
	if err := s.EnqueueRange(r); err != nil {
		return nil, err
	}
	return s, nil
}

// FromIDs returns a set holding ids. Duplicates are rejected.
func FromIDs(ids ...int64) (*Set, error) {
	s := New()
	for _, id := range ids {
		if err := s.Enqueue(id); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Restore rebuilds a set from previously exported ranges.
// The ranges must already satisfy the set invariant.
func Restore(ranges []Range) (*Set, error) {
	for i, r := range ranges {
		if r.IsEmpty() {
			return nil, fmt.Errorf("%w: %s at index %d", ErrInvalidRange, r, i)
		}
		if r.From < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidID, r.From)
		}
		if i > 0 && r.From-ranges[i-1].To <= 1 {
			return nil, fmt.Errorf("%w: %s follows %s", ErrUnordered, r, ranges[i-1])
		}
	}
	return &Set{ranges: slices.Clone(ranges)}, nil
}

// search returns the index of the first range whose To is >= id.
func (s *Set) search(id int64) int {
	return sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].To >= id
	})
}

// Enqueue inserts id. Appending at either end of the set is O(1);
// inserting into a gap costs a binary search plus a slice shift.
func (s *Set) Enqueue(id int64) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	n := len(s.ranges)
	if n == 0 {
		s.ranges = append(s.ranges, Range{From: id, To: id})
		return nil
	}

	// Ids are non-negative, so the differences below cannot overflow.
	last := &s.ranges[n-1]
	switch {
	case id-last.To == 1:
		last.To = id
		return nil
	case id-last.To > 1:
		s.ranges = append(s.ranges, Range{From: id, To: id})
		return nil
	}

	first := &s.ranges[0]
	switch {
	case first.From-id == 1:
		first.From = id
		return nil
	case first.From-id > 1:
		s.ranges = slices.Insert(s.ranges, 0, Range{From: id, To: id})
		return nil
	}

	// id <= last.To, so i < n.
	i := s.search(id)
	if s.ranges[i].From <= id {
		return &ErrDuplicateID{ID: id}
	}

	joinPrev := i > 0 && id-s.ranges[i-1].To == 1
	joinNext := s.ranges[i].From-id == 1

	switch {
	case joinPrev && joinNext:
		s.ranges[i-1].To = s.ranges[i].To
		s.ranges = slices.Delete(s.ranges, i, i+1)
	case joinPrev:
		s.ranges[i-1].To = id
	case joinNext:
		s.ranges[i].From = id
	default:
		s.ranges = slices.Insert(s.ranges, i, Range{From: id, To: id})
	}
	return nil
}

// EnqueueRange merges r into the set, absorbing covered ranges and joining
// touching ones. Ids already present are not an error.
func (s *Set) EnqueueRange(r Range) error {
	if r.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	if r.From < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, r.From)
	}

	n := len(s.ranges)
	// [lo, hi) are the ranges overlapping or touching r.
	lo := s.search(r.From - 1)
	hi := sort.Search(n, func(i int) bool {
		return s.ranges[i].From-1 > r.To
	})

	if lo < hi {
		r.From = min(r.From, s.ranges[lo].From)
		r.To = max(r.To, s.ranges[hi-1].To)
	}
	s.ranges = slices.Replace(s.ranges, lo, hi, r)
	return nil
}

// Dequeue removes and returns the lowest id.
func (s *Set) Dequeue() (int64, bool) {
	if len(s.ranges) == 0 {
		return 0, false
	}

	first := &s.ranges[0]
	id := first.From
	if first.From == first.To {
		s.ranges = s.ranges[1:]
		if len(s.ranges) == 0 {
			s.ranges = nil
		}
	} else {
		first.From++
	}
	return id, true
}

// Remove deletes id and reports whether it was present.
func (s *Set) Remove(id int64) bool {
	i := s.search(id)
	if i == len(s.ranges) || s.ranges[i].From > id {
		return false
	}

	r := s.ranges[i]
	switch {
	case r.From == r.To:
		s.ranges = slices.Delete(s.ranges, i, i+1)
	case id == r.From:
		s.ranges[i].From++
	case id == r.To:
		s.ranges[i].To--
	default:
		s.ranges[i].To = id - 1
		s.ranges = slices.Insert(s.ranges, i+1, Range{From: id + 1, To: r.To})
	}
	return true
}

// Peek returns the lowest id without removing it.
func (s *Set) Peek() (int64, bool) {
	if len(s.ranges) == 0 {
		return 0, false
	}
	return s.ranges[0].From, true
}

// Min is an alias of Peek.
func (s *Set) Min() (int64, bool) {
	return s.Peek()
}

// Max returns the highest id.
func (s *Set) Max() (int64, bool) {
	if len(s.ranges) == 0 {
		return 0, false
	}
	return s.ranges[len(s.ranges)-1].To, true
}

// Len returns the number of ids in the set, saturating at math.MaxInt64.
// Runs in O(#ranges).
func (s *Set) Len() int64 {
	var n int64
	for _, r := range s.ranges {
		l := r.Len()
		if n > math.MaxInt64-l {
			return math.MaxInt64
		}
		n += l
	}
	return n
}

// NumRanges returns the number of stored ranges.
func (s *Set) NumRanges() int { return len(s.ranges) }

// IsEmpty reports whether the set holds no ids.
func (s *Set) IsEmpty() bool { return len(s.ranges) == 0 }

// Contains reports whether id is in the set.
func (s *Set) Contains(id int64) bool {
	i := s.search(id)
	return i < len(s.ranges) && s.ranges[i].From <= id
}

// Ranges returns a copy of the stored ranges in ascending order.
func (s *Set) Ranges() []Range {
	return slices.Clone(s.ranges)
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	return &Set{ranges: slices.Clone(s.ranges)}
}

// Clear removes every id.
func (s *Set) Clear() {
	s.ranges = nil
}

// Equal reports whether both sets hold the same ids.
func (s *Set) Equal(other *Set) bool {
	return slices.Equal(s.ranges, other.ranges)
}

// Split returns two new sets: left holds the ids <= id, right the ids > id.
// The receiver is not modified.
func (s *Set) Split(id int64) (left, right *Set) {
	i := sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].To > id
	})

	left = &Set{ranges: slices.Clone(s.ranges[:i])}
	right = &Set{ranges: slices.Clone(s.ranges[i:])}
	if len(right.ranges) > 0 && right.ranges[0].From <= id {
		left.ranges = append(left.ranges, Range{From: right.ranges[0].From, To: id})
		right.ranges[0].From = id + 1
	}
	return left, right
}

// All yields every id in ascending order without modifying the set.
func (s *Set) All() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for _, r := range s.ranges {
			for id := r.From; ; id++ {
				if !yield(id) {
					return
				}
				if id == r.To {
					break
				}
			}
		}
	}
}

// Drain dequeues and yields ids in ascending order until the set is empty
// or the consumer stops.
func (s *Set) Drain() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for {
			id, ok := s.Dequeue()
			if !ok || !yield(id) {
				return
			}
		}
	}
}

func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, r := range s.ranges {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

package intervalset

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition is the root of all caller bookkeeping errors.
	ErrPrecondition = errors.New("intervalset: precondition violated")

	// ErrInvalidID is returned for negative message ids.
	ErrInvalidID = errors.New("intervalset: invalid message id")

	// ErrInvalidRange is returned for empty ranges (From > To).
	ErrInvalidRange = errors.New("intervalset: invalid range")

	// ErrUnordered is returned by Restore when ranges overlap, touch or are unsorted.
	ErrUnordered = errors.New("intervalset: ranges are not sorted, disjoint and non-adjacent")
)

// ErrDuplicateID indicates that an id was enqueued while already present.
//
// errors.Is(err, ErrPrecondition) reports true for it.
type ErrDuplicateID struct {
	ID int64
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("intervalset: duplicate id %d", e.ID)
}

func (e *ErrDuplicateID) Unwrap() error { return ErrPrecondition }

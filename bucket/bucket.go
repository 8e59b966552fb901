// Package bucket aggregates the messages of one delivery batch.
//
// A DeliveryBucket is built for one recipient from one page and discarded
// once the batch is committed. It is not safe for concurrent use.
package bucket

import (
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/pagelog/intervalset"
	"github.com/hupe1980/pagelog/page"
)

var (
	// ErrUnknownMessage is returned when confirming an id that is not pending in the bucket.
	ErrUnknownMessage = errors.New("bucket: unknown message")
)

// ErrDuplicateMessage indicates that an id was added twice.
//
// errors.Is(err, intervalset.ErrPrecondition) reports true for it.
type ErrDuplicateMessage struct {
	ID int64
}

func (e *ErrDuplicateMessage) Error() string {
	return fmt.Sprintf("bucket: message %d already added", e.ID)
}

func (e *ErrDuplicateMessage) Unwrap() error { return intervalset.ErrPrecondition }

// Delivery is a pending delivery candidate.
type Delivery struct {
	ID        int64
	AttemptNo int
	Size      int64
}

// DeliveryBucket tracks the candidates of one delivery batch.
type DeliveryBucket struct {
	page      *page.Page
	messages  map[int64]Delivery
	size      int64
	ids       *intervalset.Set
	confirmed *intervalset.Set
}

// New returns an empty bucket for p.
func New(p *page.Page) *DeliveryBucket {
	return &DeliveryBucket{
		page:      p,
		messages:  make(map[int64]Delivery),
		ids:       intervalset.New(),
		confirmed: intervalset.New(),
	}
}

// Page returns the source page.
func (b *DeliveryBucket) Page() *page.Page { return b.page }

// Add records a delivery candidate.
func (b *DeliveryBucket) Add(id int64, attemptNo int, size int64) error {
	if _, ok := b.messages[id]; ok || b.confirmed.Contains(id) {
		return &ErrDuplicateMessage{ID: id}
	}
	if err := b.ids.Enqueue(id); err != nil {
		return err
	}

	b.messages[id] = Delivery{ID: id, AttemptNo: attemptNo, Size: size}
	b.size += size
	return nil
}

// Remove reverses Add and returns the removed candidate.
func (b *DeliveryBucket) Remove(id int64) (Delivery, bool) {
	d, ok := b.messages[id]
	if !ok {
		return Delivery{}, false
	}

	delete(b.messages, id)
	b.ids.Remove(id)
	b.size -= d.Size
	return d, true
}

// IntermediaryConfirmed moves id from the pending candidates into the
// confirmed set. The id still counts towards CountWithIntermediaryConfirmed
// but is no longer subject to redelivery.
func (b *DeliveryBucket) IntermediaryConfirmed(id int64) error {
	d, ok := b.messages[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}
	if err := b.confirmed.Enqueue(id); err != nil {
		return err
	}

	delete(b.messages, id)
	b.ids.Remove(id)
	b.size -= d.Size
	return nil
}

// Count returns the number of pending candidates.
func (b *DeliveryBucket) Count() int { return len(b.messages) }

// CountWithIntermediaryConfirmed returns pending plus confirmed candidates.
func (b *DeliveryBucket) CountWithIntermediaryConfirmed() int {
	return len(b.messages) + int(b.confirmed.Len())
}

// Size returns the summed size of the pending candidates.
func (b *DeliveryBucket) Size() int64 { return b.size }

// IsEmpty reports whether nothing is pending.
func (b *DeliveryBucket) IsEmpty() bool { return len(b.messages) == 0 }

// IDs returns a copy of the pending id set.
func (b *DeliveryBucket) IDs() *intervalset.Set { return b.ids.Clone() }

// Confirmed returns a copy of the intermediary-confirmed id set.
func (b *DeliveryBucket) Confirmed() *intervalset.Set { return b.confirmed.Clone() }

// Deliveries yields the pending candidates in ascending id order.
func (b *DeliveryBucket) Deliveries() iter.Seq[Delivery] {
	ids := make([]int64, 0, len(b.messages))
	for id := range b.ids.All() {
		ids = append(ids, id)
	}
	return func(yield func(Delivery) bool) {
		for _, id := range ids {
			d, ok := b.messages[id]
			if !ok {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

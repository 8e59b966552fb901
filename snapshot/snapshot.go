// Package snapshot stores the delivery state of every topic: the last
// message id per topic and, per subscriber queue, the ids still to deliver.
//
// The encoding is protobuf so snapshots written by other broker nodes can
// be read back:
//
//	topics := []snapshot.Topic{{ID: "orders", MessageID: 42, Queues: queues}}
//	if err := snapshot.Save(ctx, store, topics); err != nil { ... }
//	topics, err = snapshot.Load(ctx, store)
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hupe1980/pagelog/blobstore"
	"github.com/hupe1980/pagelog/internal/wire"
	"github.com/hupe1980/pagelog/intervalset"
)

// BlobName is the blob holding the snapshot. It lives under the reserved
// "topics" prefix, which no topic can claim.
const BlobName = "topics/snapshot.pb"

// ErrCorrupt is returned when a snapshot cannot be decoded.
var ErrCorrupt = errors.New("snapshot: corrupt snapshot")

const (
	fieldTopics protowire.Number = 1

	fieldTopicID        protowire.Number = 1
	fieldTopicMessageID protowire.Number = 2
	fieldTopicQueues    protowire.Number = 4

	fieldQueueID     protowire.Number = 1
	fieldQueueRanges protowire.Number = 2
	fieldQueueType   protowire.Number = 3

	fieldRangeFrom protowire.Number = 1
	fieldRangeTo   protowire.Number = 2
)

// QueueType is the lifetime policy of a subscriber queue.
type QueueType int32

const (
	// Permanent queues survive subscriber disconnects.
	Permanent QueueType = iota
	// DeleteOnDisconnect queues are dropped with their last subscriber.
	DeleteOnDisconnect
	// PermanentWithSingleConnection queues survive disconnects and accept
	// one subscriber at a time.
	PermanentWithSingleConnection
)

// ParseQueueType maps a stored value to a QueueType. Unknown values fall
// back to DeleteOnDisconnect.
func ParseQueueType(v int32) QueueType {
	switch qt := QueueType(v); qt {
	case Permanent, DeleteOnDisconnect, PermanentWithSingleConnection:
		return qt
	default:
		return DeleteOnDisconnect
	}
}

func (qt QueueType) String() string {
	switch qt {
	case Permanent:
		return "permanent"
	case DeleteOnDisconnect:
		return "delete-on-disconnect"
	case PermanentWithSingleConnection:
		return "permanent-single-connection"
	default:
		return fmt.Sprintf("QueueType(%d)", int32(qt))
	}
}

// Queue is the state of one subscriber queue.
type Queue struct {
	ID   string
	Type QueueType
	// IDs are the message ids still to be delivered. Nil means none.
	IDs *intervalset.Set
}

// Topic is the state of one topic.
type Topic struct {
	ID string
	// MessageID is the id the next published message receives.
	MessageID int64
	Queues    []Queue
}

// Marshal encodes topics.
func Marshal(topics []Topic) []byte {
	var b []byte
	for i := range topics {
		b = wire.AppendBytes(b, fieldTopics, marshalTopic(&topics[i]))
	}
	return b
}

func marshalTopic(t *Topic) []byte {
	var b []byte
	b = wire.AppendString(b, fieldTopicID, t.ID)
	b = wire.AppendVarint(b, fieldTopicMessageID, t.MessageID)
	for i := range t.Queues {
		b = wire.AppendBytes(b, fieldTopicQueues, marshalQueue(&t.Queues[i]))
	}
	return b
}

func marshalQueue(q *Queue) []byte {
	var b []byte
	b = wire.AppendString(b, fieldQueueID, q.ID)
	if q.IDs != nil {
		for _, r := range q.IDs.Ranges() {
			var rb []byte
			rb = wire.AppendVarint(rb, fieldRangeFrom, r.From)
			rb = wire.AppendVarint(rb, fieldRangeTo, r.To)
			b = wire.AppendBytes(b, fieldQueueRanges, rb)
		}
	}
	b = wire.AppendVarint(b, fieldQueueType, int64(q.Type))
	return b
}

// Unmarshal decodes a snapshot produced by Marshal. Queue ranges must be
// sorted and disjoint; anything else is reported as ErrCorrupt.
func Unmarshal(b []byte) ([]Topic, error) {
	var topics []Topic
	err := wire.WalkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldTopics {
			return -1, nil
		}
		v, n, err := wire.Bytes(typ, b)
		if err != nil {
			return 0, err
		}
		t, err := unmarshalTopic(v)
		if err != nil {
			return 0, err
		}
		topics = append(topics, t)
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return topics, nil
}

func unmarshalTopic(b []byte) (Topic, error) {
	var t Topic
	err := wire.WalkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldTopicID:
			v, n, err := wire.Bytes(typ, b)
			if err != nil {
				return 0, err
			}
			t.ID = string(v)
			return n, nil
		case fieldTopicMessageID:
			return wire.Varint(typ, b, &t.MessageID)
		case fieldTopicQueues:
			v, n, err := wire.Bytes(typ, b)
			if err != nil {
				return 0, err
			}
			q, err := unmarshalQueue(v)
			if err != nil {
				return 0, fmt.Errorf("topic %q: %w", t.ID, err)
			}
			t.Queues = append(t.Queues, q)
			return n, nil
		default:
			return -1, nil
		}
	})
	return t, err
}

func unmarshalQueue(b []byte) (Queue, error) {
	var (
		q      Queue
		ranges []intervalset.Range
	)
	err := wire.WalkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldQueueID:
			v, n, err := wire.Bytes(typ, b)
			if err != nil {
				return 0, err
			}
			q.ID = string(v)
			return n, nil
		case fieldQueueRanges:
			v, n, err := wire.Bytes(typ, b)
			if err != nil {
				return 0, err
			}
			r, err := unmarshalRange(v)
			if err != nil {
				return 0, err
			}
			ranges = append(ranges, r)
			return n, nil
		case fieldQueueType:
			var v int64
			n, err := wire.Varint(typ, b, &v)
			if err != nil {
				return 0, err
			}
			q.Type = ParseQueueType(int32(v))
			return n, nil
		default:
			return -1, nil
		}
	})
	if err != nil {
		return Queue{}, err
	}

	q.IDs, err = intervalset.Restore(ranges)
	if err != nil {
		return Queue{}, fmt.Errorf("queue %q: %w", q.ID, err)
	}
	return q, nil
}

func unmarshalRange(b []byte) (intervalset.Range, error) {
	var r intervalset.Range
	err := wire.WalkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldRangeFrom:
			return wire.Varint(typ, b, &r.From)
		case fieldRangeTo:
			return wire.Varint(typ, b, &r.To)
		default:
			return -1, nil
		}
	})
	return r, err
}

// Save writes topics to BlobName in store, replacing any previous snapshot.
func Save(ctx context.Context, store blobstore.BlobStore, topics []Topic) error {
	if err := store.Put(ctx, BlobName, Marshal(topics)); err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

// Load reads the snapshot from store. A store without a snapshot yields
// no topics and no error.
func Load(ctx context.Context, store blobstore.BlobStore) ([]Topic, error) {
	data, err := blobstore.ReadAll(ctx, store, BlobName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load: %w", err)
	}
	return Unmarshal(data)
}

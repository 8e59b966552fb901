// Package message defines the message record exchanged with codecs and the
// per-id state reported by pages.
package message

import (
	"fmt"
	"maps"
	"time"
)

// Record is one message of a topic.
type Record struct {
	ID      int64
	Payload []byte
	// Created is the creation time in unix microseconds.
	Created int64
	Headers map[string]string
}

// NewRecord returns a record stamped with the current time.
func NewRecord(id int64, payload []byte, headers map[string]string) Record {
	return Record{
		ID:      id,
		Payload: payload,
		Created: time.Now().UnixMicro(),
		Headers: headers,
	}
}

// Size returns the payload length in bytes, the unit of page size accounting.
func (r *Record) Size() int64 {
	return int64(len(r.Payload))
}

// CreatedTime returns Created as a time.Time.
func (r *Record) CreatedTime() time.Time {
	return time.UnixMicro(r.Created)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() Record {
	c := *r
	if r.Payload != nil {
		c.Payload = append([]byte(nil), r.Payload...)
	}
	if r.Headers != nil {
		c.Headers = maps.Clone(r.Headers)
	}
	return c
}

// Kind tags a State.
type Kind uint8

const (
	// Missing means the id was queried but never received.
	Missing Kind = iota
	// Loaded means the payload is held in memory.
	Loaded
	// GarbageCollected means the id was loaded once and its payload has been evicted.
	GarbageCollected
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Loaded:
		return "loaded"
	case GarbageCollected:
		return "garbage-collected"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// State is the result of a page lookup.
// Record is non-nil only for Loaded.
type State struct {
	Kind   Kind
	Record *Record
}

// LoadedState wraps rec.
func LoadedState(rec *Record) State {
	return State{Kind: Loaded, Record: rec}
}

// MissingState reports an id that was never received.
func MissingState() State {
	return State{Kind: Missing}
}

// GarbageCollectedState reports an evicted id.
func GarbageCollectedState() State {
	return State{Kind: GarbageCollected}
}

// IsLoaded reports whether the state carries a record.
func (s State) IsLoaded() bool { return s.Kind == Loaded }

// IsMissing reports whether the id was never received.
func (s State) IsMissing() bool { return s.Kind == Missing }

// IsGarbageCollected reports whether the payload was evicted.
func (s State) IsGarbageCollected() bool { return s.Kind == GarbageCollected }

func (s State) String() string {
	if s.Kind == Loaded && s.Record != nil {
		return fmt.Sprintf("loaded(%d)", s.Record.ID)
	}
	return s.Kind.String()
}

// Package page holds the message payloads of one page or sub-page.
//
// Each id moves through NotLoaded -> Loaded -> GarbageCollected, or
// NotLoaded -> Missing when a replay finds a gap. Independently of that,
// every written id takes part in a persistence handshake with an external
// writer:
//
//	recs := p.GetMessagesToPersist() // pending -> being persisted
//	if err := write(recs); err != nil {
//	    p.NotPersisted() // being persisted -> pending
//	} else {
//	    p.Persisted() // being persisted -> done
//	}
//
// Pages guard their state with an internal sync.RWMutex. Diagnostics take
// the read lock; mutations take the write lock only for the in-memory update.
// No method performs I/O.
package page

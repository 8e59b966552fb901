// Package pagelog provides paged in-memory message storage for a topic
// with pluggable blob persistence.
//
// Message ids are non-negative int64 values. Every id belongs to exactly one
// page of 100,000 ids (and one sub-page of 1,000 ids). A page tracks which of
// its ids are loaded, pending persistence, garbage collected or known to be
// missing, using compact interval sets.
//
// # Quick Start
//
//	ctx := context.Background()
//	topic, _ := pagelog.Open(ctx, "orders",
//	    pagelog.WithBlobStore(blobstore.NewLocalStore("./data")),
//	)
//	defer topic.Close(ctx)
//
//	_ = topic.Publish(ctx, message.NewRecord(42, []byte("hello"), nil))
//	st, _ := topic.Get(ctx, 42)  // Loaded
//
// # Persistence
//
// Published messages stay pending until Persist writes them. Each Persist
// writes one immutable blob per page holding the pending records:
//
//	stats, err := topic.Persist(ctx)
//
// Blobs are named <topic>/<page>/<generation>-<minID>-<maxID>.<codec>. When a
// page is read back, its blobs are applied in name order so the newest copy
// of a record wins.
//
// Cloud mode:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("pagelog/"))
//	topic, _ := pagelog.Open(ctx, "orders",
//	    pagelog.WithBlobStore(store),
//	    pagelog.WithCacheCapacity(64<<20),
//	    pagelog.WithMaxPersistWorkers(8),
//	)
//
// # Memory
//
// GC(minID) drops payloads below minID once they are persisted, and
// EvictIdle drops pages that have not been accessed for a while. With
// WithMemoryLimit, persisted pages are evicted on demand to make room.
package pagelog

package pagelog

import (
	"log/slog"
	"time"

	"github.com/hupe1980/pagelog/blobstore"
	"github.com/hupe1980/pagelog/codec"
)

type options struct {
	store              blobstore.BlobStore
	codec              codec.Codec
	metricsCollector   MetricsCollector
	logger             *Logger
	memoryLimit        int64
	maxPersistWorkers  int64
	persistBytesPerSec int64
	cacheCapacity      int64
	now                func() time.Time
}

// Option configures Open.
type Option func(*options)

// WithBlobStore configures where page blobs are persisted.
//
// Defaults to a fresh blobstore.MemoryStore, which loses everything on exit.
//
// Example:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("pagelog/"))
//	topic, _ := pagelog.Open(ctx, "orders", pagelog.WithBlobStore(store))
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCodec configures the codec used for new page blobs.
// Existing blobs are decoded by format detection whatever codec wrote them.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pagelog.BasicMetricsCollector{}
//	topic, _ := pagelog.Open(ctx, "orders", pagelog.WithMetricsCollector(metrics))
//	// ... use topic ...
//	stats := metrics.GetStats()
//	fmt.Printf("Persists: %d, Avg latency: %dns\n", stats.PersistCount, stats.PersistAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pagelog.NewJSONLogger(slog.LevelInfo)
//	topic, _ := pagelog.Open(ctx, "orders", pagelog.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMemoryLimit caps the payload bytes held in memory across all pages
// and the blob read cache. Pages with nothing left to persist are evicted
// when the limit is reached; Publish fails with ErrMemoryLimitExceeded when
// eviction cannot make room.
//
// Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxPersistWorkers sets how many pages Persist writes concurrently.
// Defaults to 1.
func WithMaxPersistWorkers(n int) Option {
	return func(o *options) {
		o.maxPersistWorkers = int64(n)
	}
}

// WithPersistIOLimit caps the blob bytes written per second by Persist.
// Zero means unlimited.
func WithPersistIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.persistBytesPerSec = bytesPerSec
	}
}

// WithCacheCapacity enables an LRU cache of blob contents in front of the
// blob store, bounded to bytes. Useful with remote stores where a page is
// loaded repeatedly after eviction.
func WithCacheCapacity(bytes int64) Option {
	return func(o *options) {
		o.cacheCapacity = bytes
	}
}

// WithClock overrides the time source used for page access times.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		now:              time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.store == nil {
		o.store = blobstore.NewMemoryStore()
	}
	return o
}

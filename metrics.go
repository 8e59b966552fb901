package pagelog

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
// The metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordPublish is called after each Publish call.
	// count is the number of records, bytes their payload size.
	RecordPublish(count int, bytes int64, duration time.Duration, err error)

	// RecordPersist is called after each Persist call.
	RecordPersist(stats PersistStats, err error)

	// RecordLoad is called after a page is read back from the blob store.
	RecordLoad(records int, duration time.Duration, err error)

	// RecordGC is called after each GC call.
	RecordGC(freedBytes int64, droppedPages int)

	// RecordEviction is called when pages are dropped from memory.
	RecordEviction(pages int, bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPublish(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordPersist(PersistStats, error)              {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordGC(int64, int)                            {}
func (NoopMetricsCollector) RecordEviction(int, int64)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PublishCount      atomic.Int64
	PublishRecords    atomic.Int64
	PublishBytes      atomic.Int64
	PublishErrors     atomic.Int64
	PersistCount      atomic.Int64
	PersistPages      atomic.Int64
	PersistRecords    atomic.Int64
	PersistBytes      atomic.Int64
	PersistErrors     atomic.Int64
	PersistTotalNanos atomic.Int64
	LoadCount         atomic.Int64
	LoadRecords       atomic.Int64
	LoadErrors        atomic.Int64
	GCCount           atomic.Int64
	GCFreedBytes      atomic.Int64
	GCDroppedPages    atomic.Int64
	EvictedPages      atomic.Int64
	EvictedBytes      atomic.Int64
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(count int, bytes int64, _ time.Duration, err error) {
	b.PublishCount.Add(1)
	if err != nil {
		b.PublishErrors.Add(1)
		return
	}
	b.PublishRecords.Add(int64(count))
	b.PublishBytes.Add(bytes)
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(stats PersistStats, err error) {
	b.PersistCount.Add(1)
	b.PersistPages.Add(int64(stats.Pages))
	b.PersistRecords.Add(int64(stats.Records))
	b.PersistBytes.Add(stats.Bytes)
	b.PersistTotalNanos.Add(stats.Duration.Nanoseconds())
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(records int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadRecords.Add(int64(records))
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordGC implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGC(freedBytes int64, droppedPages int) {
	b.GCCount.Add(1)
	b.GCFreedBytes.Add(freedBytes)
	b.GCDroppedPages.Add(int64(droppedPages))
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(pages int, bytes int64) {
	b.EvictedPages.Add(int64(pages))
	b.EvictedBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PublishCount:    b.PublishCount.Load(),
		PublishRecords:  b.PublishRecords.Load(),
		PublishBytes:    b.PublishBytes.Load(),
		PublishErrors:   b.PublishErrors.Load(),
		PersistCount:    b.PersistCount.Load(),
		PersistPages:    b.PersistPages.Load(),
		PersistRecords:  b.PersistRecords.Load(),
		PersistBytes:    b.PersistBytes.Load(),
		PersistErrors:   b.PersistErrors.Load(),
		PersistAvgNanos: b.getAvgPersistNanos(),
		LoadCount:       b.LoadCount.Load(),
		LoadRecords:     b.LoadRecords.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		GCCount:         b.GCCount.Load(),
		GCFreedBytes:    b.GCFreedBytes.Load(),
		GCDroppedPages:  b.GCDroppedPages.Load(),
		EvictedPages:    b.EvictedPages.Load(),
		EvictedBytes:    b.EvictedBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPersistNanos() int64 {
	count := b.PersistCount.Load()
	if count == 0 {
		return 0
	}
	return b.PersistTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PublishCount    int64
	PublishRecords  int64
	PublishBytes    int64
	PublishErrors   int64
	PersistCount    int64
	PersistPages    int64
	PersistRecords  int64
	PersistBytes    int64
	PersistErrors   int64
	PersistAvgNanos int64
	LoadCount       int64
	LoadRecords     int64
	LoadErrors      int64
	GCCount         int64
	GCFreedBytes    int64
	GCDroppedPages  int64
	EvictedPages    int64
	EvictedBytes    int64
}

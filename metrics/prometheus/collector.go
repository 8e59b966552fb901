// Package prometheus exports pagelog metrics to Prometheus.
//
//	c := prometheus.NewCollector("orders")
//	registry.MustRegister(c)
//	topic, _ := pagelog.Open(ctx, "orders", pagelog.WithMetricsCollector(c))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/pagelog"
)

const namespace = "pagelog"

// Collector implements pagelog.MetricsCollector and prometheus.Collector.
type Collector struct {
	opLatency    *prometheus.HistogramVec
	ops          *prometheus.CounterVec
	records      *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	pagesWritten prometheus.Counter
	pagesFailed  prometheus.Counter
	gcFreed      prometheus.Counter
	gcDropped    prometheus.Counter
	evictions    prometheus.Counter
	evictedBytes prometheus.Counter
}

var _ pagelog.MetricsCollector = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector whose metrics carry a constant topic label.
func NewCollector(topic string) *Collector {
	labels := prometheus.Labels{"topic": topic}

	return &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "operation_latency_seconds",
			Help:        "Latency of topic operations",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "operations_total",
			Help:        "Total topic operations",
			ConstLabels: labels,
		}, []string{"op", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "records_total",
			Help:        "Records published, persisted or loaded",
			ConstLabels: labels,
		}, []string{"op"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "bytes_total",
			Help:        "Payload bytes published and blob bytes persisted",
			ConstLabels: labels,
		}, []string{"op"}),
		pagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pages_persisted_total",
			Help:        "Page blobs written",
			ConstLabels: labels,
		}),
		pagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pages_persist_failed_total",
			Help:        "Page blob writes that failed",
			ConstLabels: labels,
		}),
		gcFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "gc_freed_bytes_total",
			Help:        "Payload bytes released by garbage collection",
			ConstLabels: labels,
		}),
		gcDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "gc_dropped_pages_total",
			Help:        "Pages dropped by garbage collection",
			ConstLabels: labels,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "evicted_pages_total",
			Help:        "Pages evicted from memory",
			ConstLabels: labels,
		}),
		evictedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "evicted_bytes_total",
			Help:        "Payload bytes released by eviction",
			ConstLabels: labels,
		}),
	}
}

func (c *Collector) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.opLatency, c.ops, c.records, c.bytes,
		c.pagesWritten, c.pagesFailed,
		c.gcFreed, c.gcDropped,
		c.evictions, c.evictedBytes,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.all() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.all() {
		m.Collect(ch)
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordPublish implements pagelog.MetricsCollector.
func (c *Collector) RecordPublish(count int, bytes int64, d time.Duration, err error) {
	c.observe("publish", d, err)
	if err == nil {
		c.records.WithLabelValues("publish").Add(float64(count))
		c.bytes.WithLabelValues("publish").Add(float64(bytes))
	}
}

// RecordPersist implements pagelog.MetricsCollector.
func (c *Collector) RecordPersist(stats pagelog.PersistStats, err error) {
	c.observe("persist", stats.Duration, err)
	c.records.WithLabelValues("persist").Add(float64(stats.Records))
	c.bytes.WithLabelValues("persist").Add(float64(stats.Bytes))
	c.pagesWritten.Add(float64(stats.Pages))
	c.pagesFailed.Add(float64(stats.FailedPages))
}

// RecordLoad implements pagelog.MetricsCollector.
func (c *Collector) RecordLoad(records int, d time.Duration, err error) {
	c.observe("load", d, err)
	c.records.WithLabelValues("load").Add(float64(records))
}

// RecordGC implements pagelog.MetricsCollector.
func (c *Collector) RecordGC(freedBytes int64, droppedPages int) {
	c.gcFreed.Add(float64(freedBytes))
	c.gcDropped.Add(float64(droppedPages))
}

// RecordEviction implements pagelog.MetricsCollector.
func (c *Collector) RecordEviction(pages int, bytes int64) {
	c.evictions.Add(float64(pages))
	c.evictedBytes.Add(float64(bytes))
}

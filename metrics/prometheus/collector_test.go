package prometheus

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pagelog"
	"github.com/hupe1980/pagelog/message"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("orders")
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	c.RecordPublish(3, 30, time.Millisecond, nil)
	c.RecordPublish(1, 10, time.Millisecond, errors.New("fail"))
	c.RecordPersist(pagelog.PersistStats{Pages: 2, FailedPages: 1, Records: 3, Bytes: 512}, nil)
	c.RecordGC(64, 1)
	c.RecordEviction(2, 128)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.records.WithLabelValues("publish")))
	assert.Equal(t, 30.0, testutil.ToFloat64(c.bytes.WithLabelValues("publish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("publish", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.pagesWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pagesFailed))
	assert.Equal(t, 64.0, testutil.ToFloat64(c.gcFreed))
	assert.Equal(t, 128.0, testutil.ToFloat64(c.evictedBytes))

	expected := `
# HELP pagelog_evicted_pages_total Pages evicted from memory
# TYPE pagelog_evicted_pages_total counter
pagelog_evicted_pages_total{topic="orders"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "pagelog_evicted_pages_total"))
}

func TestCollector_WithTopic(t *testing.T) {
	ctx := context.Background()
	c := NewCollector("orders")

	topic, err := pagelog.Open(ctx, "orders", pagelog.WithMetricsCollector(c))
	require.NoError(t, err)

	require.NoError(t, topic.Publish(ctx, message.NewRecord(1, []byte("abc"), nil)))
	_, err = topic.Persist(ctx)
	require.NoError(t, err)
	require.NoError(t, topic.Close(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("persist")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pagesWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ops.WithLabelValues("persist", "success")))
	assert.Positive(t, testutil.CollectAndCount(c, "pagelog_operation_latency_seconds"))
}

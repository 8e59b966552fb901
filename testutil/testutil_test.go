package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	assert.Equal(t, a.IDs(100, 1_000), b.IDs(100, 1_000))
	assert.Equal(t, a.Payload(16), b.Payload(16))

	first := a.Intn(1_000_000)
	a.Reset()
	a.IDs(100, 1_000)
	a.Payload(16)
	assert.Equal(t, first, a.Intn(1_000_000))
	assert.Equal(t, uint64(42), a.Seed())
}

func TestRNG_IDs(t *testing.T) {
	rng := NewRNG(1)
	ids := rng.IDs(500, 600)
	require.Len(t, ids, 500)

	seen := make(map[int64]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate %d", id)
		assert.GreaterOrEqual(t, id, int64(0))
		assert.Less(t, id, int64(600))
		seen[id] = true
	}

	assert.Len(t, rng.IDs(10, 5), 5)
}

func TestRNG_Records(t *testing.T) {
	recs := NewRNG(3).Records(4, 100, 8)
	require.Len(t, recs, 4)
	for i, r := range recs {
		assert.Equal(t, int64(100+i), r.ID)
		assert.Len(t, r.Payload, 8)
	}
	assert.Equal(t, "0", recs[0].Headers["seq"])
	assert.Nil(t, recs[1].Headers)
}

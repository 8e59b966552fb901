package testutil

import (
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/hupe1980/pagelog/message"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Int64n returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Int64n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int64N(n)
}

// Shuffle pseudo-randomizes the order of ids.
func (r *RNG) Shuffle(ids []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// IDs returns n distinct ids from [0, limit) in random order.
func (r *RNG) IDs(n int, limit int64) []int64 {
	if int64(n) > limit {
		n = int(limit)
	}
	seen := make(map[int64]struct{}, n)
	ids := make([]int64, 0, n)
	for len(ids) < n {
		id := r.Int64n(limit)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Payload returns n pseudo-random lowercase bytes.
func (r *RNG) Payload(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a' + byte(r.rand.IntN(26))
	}
	return b
}

// Records returns n records with consecutive ids starting at first,
// payloads of payloadLen bytes and a header on every other record.
func (r *RNG) Records(n int, first int64, payloadLen int) []message.Record {
	recs := make([]message.Record, n)
	for i := range recs {
		id := first + int64(i)
		recs[i] = message.Record{
			ID:      id,
			Payload: r.Payload(payloadLen),
			Created: 1_700_000_000_000_000 + id,
		}
		if i%2 == 0 {
			recs[i].Headers = map[string]string{"seq": strconv.Itoa(i)}
		}
	}
	return recs
}

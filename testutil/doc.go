// Package testutil provides testing utilities for pagelog.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(seed)
//	ids := rng.IDs(1_000, 500_000)        // distinct, shuffled
//	recs := rng.Records(100, 0, 64)       // ids 0..99, 64-byte payloads
package testutil

// Package resource bounds the memory, concurrency and upload bandwidth a
// topic may use.
//
//   - Memory: loaded payload and cached blob bytes (fail-fast, never blocks)
//   - Workers: concurrent page persist jobs (blocking semaphore)
//   - IO: bytes per second written to the blob store (token bucket)
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   512 << 20,
//	    MaxPersistWorkers:  4,
//	    PersistBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//	if err := rc.WaitIO(ctx, len(blob)); err != nil {
//	    return err
//	}
//
// All methods are safe for concurrent use and are no-ops on a nil Controller.
package resource

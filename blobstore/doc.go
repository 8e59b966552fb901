// Package blobstore stores persisted page blobs.
//
// A BlobStore holds immutable, named blobs. Page blobs are written once with
// Put and read back whole when a page is restored. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral topics
//   - LocalStore: local filesystem, atomic rename on write, mmap on read
//   - CachingStore: LRU read cache in front of any other store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore

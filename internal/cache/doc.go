// Package cache keeps recently used data in memory.
//
// # Blob Cache
//
// BlobCache is a byte-bounded LRU of immutable page blobs keyed by blob name.
// It sits behind blobstore.CachingStore so that a page evicted from memory
// and requested again does not trigger another remote read.
//
// # Page Cache
//
// PageCache owns the loaded pages of one topic. Pages are ordered by recency
// and evicted by idle age or by payload size, but never while they still
// hold ids waiting to be persisted.
//
// Both caches report their memory to a resource.Controller when one is given.
package cache

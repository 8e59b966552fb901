// Package mmap maps persisted page blobs into memory read-only.
//
//	m, err := mmap.Open(path, mmap.AccessSequential)
//	if err != nil { ... }
//	defer m.Close()
//	records, err := codec.Decode(m.Bytes())
//
// Unix systems use mmap(2) and madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// Bytes must not be used after Close; Close is idempotent.
package mmap

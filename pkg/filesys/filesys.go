// Package filesys provides the raw segment-file service the storage manager
// is built on: open-or-create, positioned read/write, fsync, truncate to
// length, remove and size queries for individual segment files. Every call
// blocks until the underlying medium responds.
package filesys

import (
	"errors"
	"os"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// SegmentFile is one open segment. Descriptors are exclusively owned by the
// fork state that opened them and are never shared.
type SegmentFile interface {
	// ReadAt reads len(p) bytes at the given byte offset.
	ReadAt(p []byte, off int64) (int, error)

	// WriteAt writes len(p) bytes at the given byte offset, extending the
	// file if the offset is at its end.
	WriteAt(p []byte, off int64) (int, error)

	// Sync forces written data to durable storage.
	Sync() error

	// Truncate shortens the file to the given byte length.
	Truncate(length int64) error

	// Size returns the file's current byte length.
	Size() (int64, error)

	// Prefetch hints the OS to read the byte range into its cache. Best
	// effort; a failure never affects correctness.
	Prefetch(off, length int64) error

	// WriteBack asks the OS to schedule writeout of the byte range without
	// waiting for durability.
	WriteBack(off, length int64) error

	// Name returns the path the file was opened with.
	Name() string

	// Close releases the descriptor.
	Close() error
}

// Service opens, creates and removes segment files by path.
type Service interface {
	// Open opens an existing segment file for reading and writing.
	Open(path string) (SegmentFile, error)

	// Create creates a segment file. With excl set an existing file is an
	// error; otherwise an existing file is opened as-is.
	Create(path string, excl bool) (SegmentFile, error)

	// Remove deletes a segment file.
	Remove(path string) error

	// Exists reports whether a segment file is present.
	Exists(path string) (bool, error)

	// CreateDir ensures a directory path exists.
	CreateDir(path string, permission os.FileMode) error
}

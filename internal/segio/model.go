package segio

import (
	"go.uber.org/zap"

	"github.com/iamNilotpal/strata/pkg/filesys"
	"github.com/iamNilotpal/strata/pkg/options"
	"github.com/iamNilotpal/strata/pkg/relation"
)

// segment is one open segment file of a fork.
type segment struct {
	index uint32 // Segment index within the fork; segment 0 is the base file.
	file  filesys.SegmentFile
}

// forkState tracks the open descriptors of one fork. The open count is kept
// separately from the slice's capacity: releasing descriptors resets numOpen
// without giving up the backing array.
type forkState struct {
	segs    []*segment
	numOpen int
}

// Relation is the per-relation descriptor state: which segments of which
// forks are currently open in this process. Descriptors are exclusively owned
// here and never shared between relations or forks.
type Relation struct {
	lb    relation.LocatorBackend
	forks [relation.MaxFork + 1]forkState
}

// NewRelation creates descriptor state with no open segments.
func NewRelation(lb relation.LocatorBackend) *Relation {
	return &Relation{lb: lb}
}

// Locator returns the relation's cache key.
func (r *Relation) Locator() relation.LocatorBackend {
	return r.lb
}

// HasOpenSegments reports whether any fork holds an open descriptor.
func (r *Relation) HasOpenSegments() bool {
	for fork := range r.forks {
		if r.forks[fork].numOpen > 0 {
			return true
		}
	}
	return false
}

// pendingKey identifies one segment awaiting its batched fsync.
type pendingKey struct {
	lb    relation.LocatorBackend
	fork  relation.Fork
	segno uint32
}

// Store is the segment I/O adapter: it translates block addresses to segment
// files, lazily opens descriptors and tracks segments with writes awaiting a
// batched durability pass.
type Store struct {
	fs      filesys.Service
	opts    *options.Options
	log     *zap.SugaredLogger
	pending map[pendingKey]struct{}
}

// New creates a segment store over the given raw file service.
func New(fs filesys.Service, opts *options.Options, log *zap.SugaredLogger) *Store {
	return &Store{
		fs:      fs,
		opts:    opts,
		log:     log,
		pending: make(map[pendingKey]struct{}),
	}
}

// BlockSize returns the configured transfer unit in bytes.
func (s *Store) BlockSize() uint32 {
	return s.opts.BlockSize
}

// segmentIndex returns which segment holds the block.
func (s *Store) segmentIndex(blkno relation.BlockNumber) uint32 {
	return uint32(blkno) / s.opts.SegmentCapacity
}

// segmentOffset returns the block's position within its segment.
func (s *Store) segmentOffset(blkno relation.BlockNumber) uint32 {
	return uint32(blkno) % s.opts.SegmentCapacity
}

// byteOffset returns the byte position of an in-segment block offset.
func (s *Store) byteOffset(segOffset uint32) int64 {
	return int64(segOffset) * int64(s.opts.BlockSize)
}

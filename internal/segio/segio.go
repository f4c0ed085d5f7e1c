// Package segio is the segment I/O adapter: it maps (fork, block number) to
// (segment file, in-segment offset), lazily opens segment descriptors and
// performs the raw block transfers the relation handle cache asks for.
package segio

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/options"
	"github.com/iamNilotpal/strata/pkg/relation"
)

// Create ensures the fork's storage exists on disk, registering segment 0 as
// open. With allowExisting set an already-present base file is opened as-is
// instead of failing; replay uses this to re-apply a creation whose effect
// already happened.
func (s *Store) Create(rel *Relation, fork relation.Fork, allowExisting bool) error {
	fs := &rel.forks[fork]
	if fs.numOpen > 0 {
		return nil
	}

	dirPath := relation.DirPath(s.opts.DataDir, rel.lb)
	if err := s.fs.CreateDir(dirPath, options.DefaultDirMode); err != nil {
		return errors.NewStorageError(
			err, errors.ErrMediumIO, "Failed to create relation directory",
		).
			WithRelation(rel.lb.String()).
			WithPath(dirPath)
	}

	path := relation.FilePath(s.opts.DataDir, rel.lb, fork, 0)
	file, err := s.fs.Create(path, true)
	if err != nil {
		classified := errors.ClassifyOpenError(err, path)
		if classified.Code() != errors.ErrAlreadyExists || !allowExisting {
			return classified.WithRelation(rel.lb.String()).WithFork(fork.String())
		}

		// Re-applied creation: adopt the file that is already there.
		file, err = s.fs.Open(path)
		if err != nil {
			return errors.ClassifyOpenError(err, path).
				WithRelation(rel.lb.String()).
				WithFork(fork.String())
		}
	}

	s.log.Infow("Created fork storage", "relation", rel.lb.String(), "fork", fork.String(), "path", path)
	fs.segs = append(fs.segs[:0], &segment{index: 0, file: file})
	fs.numOpen = 1
	return nil
}

// Exists reports whether the fork's storage is present on the underlying
// medium. No cache state changes.
func (s *Store) Exists(rel *Relation, fork relation.Fork) (bool, error) {
	if rel.forks[fork].numOpen > 0 {
		return true, nil
	}

	path := relation.FilePath(s.opts.DataDir, rel.lb, fork, 0)
	ok, err := s.fs.Exists(path)
	if err != nil {
		return false, errors.NewStorageError(
			err, errors.ErrMediumIO, "Failed to probe fork storage",
		).
			WithRelation(rel.lb.String()).
			WithFork(fork.String()).
			WithPath(path)
	}
	return ok, nil
}

// openSegment returns the open segment with the given index, opening every
// segment up to it in ascending order. With create set, a missing segment
// file is created rather than reported; extension across a boundary relies on
// this.
func (s *Store) openSegment(rel *Relation, fork relation.Fork, segno uint32, create bool) (*segment, error) {
	fs := &rel.forks[fork]
	if int(segno) < fs.numOpen {
		return fs.segs[segno], nil
	}

	for next := uint32(fs.numOpen); next <= segno; next++ {
		path := relation.FilePath(s.opts.DataDir, rel.lb, fork, next)

		file, err := s.fs.Open(path)
		if err != nil {
			classified := errors.ClassifyOpenError(err, path)
			if classified.Code() != errors.ErrNotFound || !create {
				return nil, classified.
					WithRelation(rel.lb.String()).
					WithFork(fork.String()).
					WithSegment(next)
			}

			file, err = s.fs.Create(path, false)
			if err != nil {
				return nil, errors.ClassifyOpenError(err, path).
					WithRelation(rel.lb.String()).
					WithFork(fork.String()).
					WithSegment(next)
			}
			s.log.Infow("Created segment file", "relation", rel.lb.String(), "fork", fork.String(), "segment", next, "path", path)
		}

		fs.segs = append(fs.segs[:fs.numOpen], &segment{index: next, file: file})
		fs.numOpen++
	}

	return fs.segs[segno], nil
}

// Read transfers one block into buf. The caller has already bounds-checked
// the block number against the fork's size.
func (s *Store) Read(rel *Relation, fork relation.Fork, blkno relation.BlockNumber, buf []byte) error {
	seg, err := s.openSegment(rel, fork, s.segmentIndex(blkno), false)
	if err != nil {
		return err
	}

	off := s.byteOffset(s.segmentOffset(blkno))
	n, err := seg.file.ReadAt(buf, off)
	if err != nil {
		return errors.NewStorageError(
			err, errors.ErrMediumIO, "Failed to read block",
		).
			WithRelation(rel.lb.String()).
			WithFork(fork.String()).
			WithBlock(uint32(blkno)).
			WithSegment(seg.index).
			WithPath(seg.file.Name())
	}

	if n != len(buf) {
		return errors.NewStorageError(
			nil, errors.ErrShortTransfer,
			fmt.Sprintf("Short read: %d of %d bytes", n, len(buf)),
		).
			WithRelation(rel.lb.String()).
			WithFork(fork.String()).
			WithBlock(uint32(blkno)).
			WithSegment(seg.index)
	}

	return nil
}

// Write overwrites one existing block. The caller has already bounds-checked
// the block number. With skipFsync unset the touched segment joins the
// pending-sync set for the next batched durability pass.
func (s *Store) Write(rel *Relation, fork relation.Fork, blkno relation.BlockNumber, buf []byte, skipFsync bool) error {
	return s.writeBlock(rel, fork, blkno, buf, skipFsync, false)
}

// Extend appends exactly one block at the fork's current end. Crossing a
// segment boundary creates the next segment file first.
func (s *Store) Extend(rel *Relation, fork relation.Fork, blkno relation.BlockNumber, buf []byte, skipFsync bool) error {
	return s.writeBlock(rel, fork, blkno, buf, skipFsync, true)
}

func (s *Store) writeBlock(rel *Relation, fork relation.Fork, blkno relation.BlockNumber, buf []byte, skipFsync, create bool) error {
	seg, err := s.openSegment(rel, fork, s.segmentIndex(blkno), create)
	if err != nil {
		return err
	}

	off := s.byteOffset(s.segmentOffset(blkno))
	n, err := seg.file.WriteAt(buf, off)
	if err != nil {
		return errors.NewStorageError(
			err, errors.ErrMediumIO, "Failed to write block",
		).
			WithRelation(rel.lb.String()).
			WithFork(fork.String()).
			WithBlock(uint32(blkno)).
			WithSegment(seg.index).
			WithPath(seg.file.Name())
	}

	if n != len(buf) {
		return errors.NewStorageError(
			nil, errors.ErrShortTransfer,
			fmt.Sprintf("Short write: %d of %d bytes", n, len(buf)),
		).
			WithRelation(rel.lb.String()).
			WithFork(fork.String()).
			WithBlock(uint32(blkno)).
			WithSegment(seg.index)
	}

	if !skipFsync {
		s.registerDirty(rel.lb, fork, seg.index)
	}

	return nil
}

// zeroBatchBlocks caps the scratch buffer ZeroExtend writes from. Large
// extensions reuse one small allocation instead of materializing a whole
// segment of zeroes.
const zeroBatchBlocks = 8

// ZeroExtend appends count zero-filled blocks starting at blkno, rolling
// across segment boundaries, writing at most zeroBatchBlocks per call to the
// medium instead of one write per block.
func (s *Store) ZeroExtend(rel *Relation, fork relation.Fork, blkno relation.BlockNumber, count int, skipFsync bool) error {
	batch := uint32(zeroBatchBlocks)
	if uint32(count) < batch {
		batch = uint32(count)
	}
	zeros := make([]byte, int64(batch)*int64(s.opts.BlockSize))

	remaining := uint32(count)
	current := blkno

	for remaining > 0 {
		seg, err := s.openSegment(rel, fork, s.segmentIndex(current), true)
		if err != nil {
			return err
		}

		inSeg := s.segmentOffset(current)
		chunk := s.opts.SegmentCapacity - inSeg
		if chunk > remaining {
			chunk = remaining
		}

		for written := uint32(0); written < chunk; {
			step := chunk - written
			if step > batch {
				step = batch
			}

			buf := zeros[:int64(step)*int64(s.opts.BlockSize)]
			n, err := seg.file.WriteAt(buf, s.byteOffset(inSeg+written))
			if err != nil || n != len(buf) {
				return errors.NewStorageError(
					err, errors.ErrMediumIO, "Failed to zero-fill blocks",
				).
					WithRelation(rel.lb.String()).
					WithFork(fork.String()).
					WithBlock(uint32(current)+written).
					WithSegment(seg.index).
					WithPath(seg.file.Name())
			}
			written += step
		}

		if !skipFsync {
			s.registerDirty(rel.lb, fork, seg.index)
		}

		current += relation.BlockNumber(chunk)
		remaining -= chunk
	}

	return nil
}

// Prefetch hints the OS to load one block into its cache. Best effort: the
// return value reports whether a request was issued, never an error.
func (s *Store) Prefetch(rel *Relation, fork relation.Fork, blkno relation.BlockNumber) bool {
	seg, err := s.openSegment(rel, fork, s.segmentIndex(blkno), false)
	if err != nil {
		return false
	}

	off := s.byteOffset(s.segmentOffset(blkno))
	return seg.file.Prefetch(off, int64(s.opts.BlockSize)) == nil
}

// WriteBack asks the OS to schedule writeout of a contiguous block range.
// Only already-open segments are touched; this is a scheduling hint, not a
// durability guarantee, so failures are swallowed.
func (s *Store) WriteBack(rel *Relation, fork relation.Fork, blkno relation.BlockNumber, nblocks int) {
	fs := &rel.forks[fork]
	remaining := uint32(nblocks)
	current := blkno

	for remaining > 0 {
		segno := s.segmentIndex(current)
		inSeg := s.segmentOffset(current)

		chunk := s.opts.SegmentCapacity - inSeg
		if chunk > remaining {
			chunk = remaining
		}

		if int(segno) < fs.numOpen {
			seg := fs.segs[segno]
			_ = seg.file.WriteBack(s.byteOffset(inSeg), int64(chunk)*int64(s.opts.BlockSize))
		}

		current += relation.BlockNumber(chunk)
		remaining -= chunk
	}
}

// Nblocks computes the fork's authoritative size by walking segment files
// until one is shorter than a full segment.
func (s *Store) Nblocks(rel *Relation, fork relation.Fork) (relation.BlockNumber, error) {
	full := s.opts.SegmentBytes()
	total := relation.BlockNumber(0)

	for segno := uint32(0); ; segno++ {
		seg, err := s.openSegment(rel, fork, segno, false)
		if err != nil {
			// The first missing segment past an entirely full one marks the
			// end of the fork.
			if segno > 0 && errors.IsCode(err, errors.ErrNotFound) {
				return total, nil
			}
			return relation.InvalidBlockNumber, err
		}

		size, err := seg.file.Size()
		if err != nil {
			return relation.InvalidBlockNumber, errors.NewStorageError(
				err, errors.ErrMediumIO, "Failed to query segment size",
			).
				WithRelation(rel.lb.String()).
				WithFork(fork.String()).
				WithSegment(segno).
				WithPath(seg.file.Name())
		}

		total += relation.BlockNumber(size / int64(s.opts.BlockSize))
		if size < full {
			return total, nil
		}
	}
}

// Truncate shrinks the fork to newCount blocks: trailing segment files are
// removed, the boundary segment is shortened. The caller has verified that
// newCount does not exceed the current size.
func (s *Store) Truncate(rel *Relation, fork relation.Fork, newCount relation.BlockNumber) error {
	// Walk to the fork's end so every trailing segment is open and removable.
	current, err := s.Nblocks(rel, fork)
	if err != nil {
		return err
	}
	if newCount >= current {
		return nil
	}

	fs := &rel.forks[fork]
	keepSegs := s.segmentIndex(newCount)
	boundary := s.segmentOffset(newCount)

	for i := fs.numOpen - 1; i >= 0; i-- {
		seg := fs.segs[i]

		switch {
		case seg.index > keepSegs || (seg.index == keepSegs && boundary == 0 && newCount > 0 && seg.index > 0):
			// Entirely beyond the new end.
			path := seg.file.Name()
			if err := seg.file.Close(); err != nil {
				return errors.NewStorageError(
					err, errors.ErrMediumIO, "Failed to close truncated segment",
				).
					WithRelation(rel.lb.String()).
					WithFork(fork.String()).
					WithSegment(seg.index).
					WithPath(path)
			}

			if err := s.fs.Remove(path); err != nil {
				return errors.ClassifyRemoveError(err, path).
					WithRelation(rel.lb.String()).
					WithFork(fork.String()).
					WithSegment(seg.index)
			}

			s.forgetDirty(rel.lb, fork, seg.index)
			fs.segs = fs.segs[:i]
			fs.numOpen = i
			s.log.Infow("Removed trailing segment", "relation", rel.lb.String(), "fork", fork.String(), "segment", seg.index)

		case seg.index == keepSegs:
			// Boundary segment keeps only the blocks below the new end.
			length := s.byteOffset(boundary)
			if boundary == 0 && newCount > 0 {
				length = s.opts.SegmentBytes()
			}

			if err := seg.file.Truncate(length); err != nil {
				return errors.NewStorageError(
					err, errors.ErrMediumIO, "Failed to shorten boundary segment",
				).
					WithRelation(rel.lb.String()).
					WithFork(fork.String()).
					WithSegment(seg.index).
					WithPath(seg.file.Name())
			}
			s.registerDirty(rel.lb, fork, seg.index)

		default:
			// Entirely below the new end.
		}
	}

	return nil
}

// Unlink removes every segment file of the fork, dropping open descriptors
// and pending sync requests first. A missing base file surfaces as
// ErrNotFound for the caller's replay mode to judge.
func (s *Store) Unlink(rel *Relation, fork relation.Fork) error {
	if err := s.CloseFork(rel, fork); err != nil {
		return err
	}
	s.forgetFork(rel.lb, fork)

	basePath := relation.FilePath(s.opts.DataDir, rel.lb, fork, 0)
	if err := s.fs.Remove(basePath); err != nil {
		return errors.ClassifyRemoveError(err, basePath).
			WithRelation(rel.lb.String()).
			WithFork(fork.String()).
			WithSegment(0)
	}

	// Higher segments end at the first missing file.
	for segno := uint32(1); ; segno++ {
		path := relation.FilePath(s.opts.DataDir, rel.lb, fork, segno)
		if err := s.fs.Remove(path); err != nil {
			classified := errors.ClassifyRemoveError(err, path)
			if classified.Code() == errors.ErrNotFound {
				break
			}
			return classified.WithRelation(rel.lb.String()).WithFork(fork.String()).WithSegment(segno)
		}
	}

	s.log.Infow("Unlinked fork storage", "relation", rel.lb.String(), "fork", fork.String())
	return nil
}

// CloseFork releases the fork's open descriptors, keeping the backing array
// for reuse. Data is never lost: segments reopen on demand.
func (s *Store) CloseFork(rel *Relation, fork relation.Fork) error {
	fs := &rel.forks[fork]

	var closeErr error
	for i := 0; i < fs.numOpen; i++ {
		if err := fs.segs[i].file.Close(); err != nil {
			closeErr = multierr.Append(closeErr, errors.NewStorageError(
				err, errors.ErrMediumIO, "Failed to close segment descriptor",
			).
				WithRelation(rel.lb.String()).
				WithFork(fork.String()).
				WithSegment(fs.segs[i].index))
		}
	}

	fs.segs = fs.segs[:0]
	fs.numOpen = 0
	return closeErr
}

// CloseRelation releases every open descriptor of every fork.
func (s *Store) CloseRelation(rel *Relation) error {
	var closeErr error
	for fork := relation.Fork(0); fork <= relation.MaxFork; fork++ {
		closeErr = multierr.Append(closeErr, s.CloseFork(rel, fork))
	}
	return closeErr
}

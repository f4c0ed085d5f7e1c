package segio

import (
	"go.uber.org/multierr"

	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/relation"
)

// registerDirty records that a segment has writes awaiting the next batched
// durability pass.
func (s *Store) registerDirty(lb relation.LocatorBackend, fork relation.Fork, segno uint32) {
	s.pending[pendingKey{lb: lb, fork: fork, segno: segno}] = struct{}{}
}

// forgetDirty drops a single segment's pending sync request.
func (s *Store) forgetDirty(lb relation.LocatorBackend, fork relation.Fork, segno uint32) {
	delete(s.pending, pendingKey{lb: lb, fork: fork, segno: segno})
}

// forgetFork drops every pending sync request of one fork.
func (s *Store) forgetFork(lb relation.LocatorBackend, fork relation.Fork) {
	for key := range s.pending {
		if key.lb == lb && key.fork == fork {
			delete(s.pending, key)
		}
	}
}

// PendingCount returns the number of segments awaiting a batched sync.
func (s *Store) PendingCount() int {
	return len(s.pending)
}

// SyncPending flushes every pending segment belonging to the given relations
// and drains their entries. A segment whose file vanished since the write was
// registered has been unlinked; its request is dropped.
func (s *Store) SyncPending(rels map[relation.LocatorBackend]*Relation) error {
	var syncErr error

	for key := range s.pending {
		rel, ok := rels[key.lb]
		if !ok {
			continue
		}

		if err := s.syncSegment(rel, key.fork, key.segno); err != nil {
			if !errors.IsCode(err, errors.ErrNotFound) {
				syncErr = multierr.Append(syncErr, err)
				continue
			}
		}

		delete(s.pending, key)
	}

	return syncErr
}

// SyncRelationPending flushes and drains the pending entries of a single
// relation. Batched durability requests must not outlive the handle that
// issued them, so this runs before a relation's descriptors are closed for
// good. An entry whose sync fails stays queued and the error is returned.
func (s *Store) SyncRelationPending(rel *Relation) error {
	var syncErr error

	for key := range s.pending {
		if key.lb != rel.lb {
			continue
		}

		if err := s.syncSegment(rel, key.fork, key.segno); err != nil {
			if !errors.IsCode(err, errors.ErrNotFound) {
				syncErr = multierr.Append(syncErr, err)
				continue
			}
		}

		delete(s.pending, key)
	}

	return syncErr
}

// ImmediateSync forces synchronous durability for one fork right now,
// bypassing the batched path: every segment is opened and fsynced, and the
// fork's pending entries are drained.
func (s *Store) ImmediateSync(rel *Relation, fork relation.Fork) error {
	// Walk to the fork's end so every segment holding data is open.
	if _, err := s.Nblocks(rel, fork); err != nil {
		return err
	}

	fs := &rel.forks[fork]
	for i := 0; i < fs.numOpen; i++ {
		seg := fs.segs[i]
		if err := seg.file.Sync(); err != nil {
			return errors.NewStorageError(
				err, errors.ErrMediumIO, "Failed to fsync segment",
			).
				WithRelation(rel.lb.String()).
				WithFork(fork.String()).
				WithSegment(seg.index).
				WithPath(seg.file.Name())
		}
	}

	s.forgetFork(rel.lb, fork)
	return nil
}

func (s *Store) syncSegment(rel *Relation, fork relation.Fork, segno uint32) error {
	seg, err := s.openSegment(rel, fork, segno, false)
	if err != nil {
		return err
	}

	if err := seg.file.Sync(); err != nil {
		return errors.NewStorageError(
			err, errors.ErrMediumIO, "Failed to fsync segment",
		).
			WithRelation(rel.lb.String()).
			WithFork(fork.String()).
			WithSegment(segno).
			WithPath(seg.file.Name())
	}

	return nil
}

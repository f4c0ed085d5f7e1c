package strata

import (
	"fmt"

	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/relation"
)

// Read transfers the addressed block into buf, opening its segment on demand.
// Addressing a block at or beyond the fork's current size is an error.
func (c *Cache) Read(h *Handle, fork relation.Fork, blkno relation.BlockNumber, buf []byte) error {
	if err := c.validateBlockOp(h, fork, buf); err != nil {
		return err
	}

	if err := c.checkInBounds(h, fork, blkno, "read"); err != nil {
		return err
	}

	return c.store.Read(h.rel, fork, blkno, buf)
}

// Write overwrites an existing block in place. Writes past the fork's current
// size are an addressing error; growing a fork goes through Extend. With
// skipFsync set, durability is deferred to a caller-owned batched pass;
// otherwise the touched segment is queued for the next SyncAll.
func (c *Cache) Write(h *Handle, fork relation.Fork, blkno relation.BlockNumber, buf []byte, skipFsync bool) error {
	if err := c.validateBlockOp(h, fork, buf); err != nil {
		return err
	}

	if err := c.checkInBounds(h, fork, blkno, "write"); err != nil {
		return err
	}

	return c.store.Write(h.rel, fork, blkno, buf, skipFsync)
}

// Extend appends exactly one block whose number equals the fork's current
// size; crossing a segment boundary creates the next segment file first. On
// success the cached size advances to blkno+1.
func (c *Cache) Extend(h *Handle, fork relation.Fork, blkno relation.BlockNumber, buf []byte, skipFsync bool) error {
	if err := c.validateBlockOp(h, fork, buf); err != nil {
		return err
	}

	if err := c.checkAppendsAt(h, fork, blkno); err != nil {
		return err
	}

	if err := c.store.Extend(h.rel, fork, blkno, buf, skipFsync); err != nil {
		return err
	}

	h.cachedNblocks[fork] = blkno + 1
	return nil
}

// ZeroExtend appends count zero-filled blocks in one call, reserving space
// without count individual content writes. On success the cached size
// advances to blkno+count.
func (c *Cache) ZeroExtend(h *Handle, fork relation.Fork, blkno relation.BlockNumber, count int, skipFsync bool) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}
	if err := validateFork(fork); err != nil {
		return err
	}
	if count <= 0 {
		return errors.NewUsageError(errors.ErrUsageInvalidInput, "Block count must be positive").
			WithOperation("ZeroExtend").
			WithProvided(count)
	}

	if err := c.checkAppendsAt(h, fork, blkno); err != nil {
		return err
	}

	if err := c.store.ZeroExtend(h.rel, fork, blkno, count, skipFsync); err != nil {
		return err
	}

	h.cachedNblocks[fork] = blkno + relation.BlockNumber(count)
	return nil
}

// Prefetch issues a best-effort hint to warm the OS cache for one block. The
// return value reports whether a request was issued; a miss never fails the
// caller.
func (c *Cache) Prefetch(h *Handle, fork relation.Fork, blkno relation.BlockNumber) bool {
	if c.validateHandle(h) != nil || !fork.Valid() {
		return false
	}
	return c.store.Prefetch(h.rel, fork, blkno)
}

// WriteBack asks the medium to schedule writeout of a contiguous block range
// without waiting for durability. A scheduling hint only.
func (c *Cache) WriteBack(h *Handle, fork relation.Fork, blkno relation.BlockNumber, nblocks int) {
	if c.validateHandle(h) != nil || !fork.Valid() || nblocks <= 0 {
		return
	}
	c.store.WriteBack(h.rel, fork, blkno, nblocks)
}

// Truncate shrinks the listed forks to the given block counts. Cached sizes
// update immediately; trailing segment files are then removed or shortened so
// no block beyond the new count stays addressable.
func (c *Cache) Truncate(h *Handle, forks []relation.Fork, newCounts []relation.BlockNumber) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}
	if len(forks) != len(newCounts) {
		return errors.NewUsageError(errors.ErrUsageInvalidInput, "Fork and count lists must have equal length").
			WithOperation("Truncate").
			WithProvided(len(newCounts)).
			WithExpected(len(forks))
	}

	for _, fork := range forks {
		if err := validateFork(fork); err != nil {
			return err
		}
	}

	for i, fork := range forks {
		current, err := c.Nblocks(h, fork)
		if err != nil {
			return err
		}

		if newCounts[i] > current {
			return errors.NewStorageError(
				nil, errors.ErrAddressing,
				fmt.Sprintf("Cannot truncate fork to %d blocks, current size is %d", newCounts[i], current),
			).
				WithRelation(h.lb.String()).
				WithFork(fork.String()).
				WithBlock(uint32(newCounts[i]))
		}

		h.cachedNblocks[fork] = newCounts[i]
		if err := c.store.Truncate(h.rel, fork, newCounts[i]); err != nil {
			return err
		}
	}

	return nil
}

// Nblocks returns the fork's authoritative size, probing the highest existing
// segment file and caching the result when no valid cached value exists.
func (c *Cache) Nblocks(h *Handle, fork relation.Fork) (relation.BlockNumber, error) {
	if err := c.validateHandle(h); err != nil {
		return relation.InvalidBlockNumber, err
	}
	if err := validateFork(fork); err != nil {
		return relation.InvalidBlockNumber, err
	}

	if h.cachedNblocks[fork].Valid() {
		return h.cachedNblocks[fork], nil
	}

	nblocks, err := c.store.Nblocks(h.rel, fork)
	if err != nil {
		return relation.InvalidBlockNumber, err
	}

	h.cachedNblocks[fork] = nblocks
	return nblocks, nil
}

// NblocksCached returns the cached size without touching the medium;
// InvalidBlockNumber when never computed or invalidated since.
func (c *Cache) NblocksCached(h *Handle, fork relation.Fork) relation.BlockNumber {
	if c.validateHandle(h) != nil || !fork.Valid() {
		return relation.InvalidBlockNumber
	}
	return h.cachedNblocks[fork]
}

// Create ensures the fork's storage exists on disk. In redo mode an
// already-present fork is adopted rather than failing, since recovery may
// re-apply a creation whose effect already happened.
func (c *Cache) Create(h *Handle, fork relation.Fork, mode Mode) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}
	if err := validateFork(fork); err != nil {
		return err
	}
	return c.store.Create(h.rel, fork, mode == ModeRedo)
}

// ImmediateSync forces synchronous durability for one fork right now,
// bypassing the batched sync path.
func (c *Cache) ImmediateSync(h *Handle, fork relation.Fork) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}
	if err := validateFork(fork); err != nil {
		return err
	}
	return c.store.ImmediateSync(h.rel, fork)
}

// checkInBounds rejects block numbers at or beyond the fork's current size.
func (c *Cache) checkInBounds(h *Handle, fork relation.Fork, blkno relation.BlockNumber, op string) error {
	nblocks, err := c.Nblocks(h, fork)
	if err != nil {
		return err
	}

	if blkno >= nblocks {
		return errors.NewStorageError(
			nil, errors.ErrAddressing,
			fmt.Sprintf("Cannot %s block %d, fork holds %d blocks", op, blkno, nblocks),
		).
			WithRelation(h.lb.String()).
			WithFork(fork.String()).
			WithBlock(uint32(blkno))
	}

	return nil
}

// checkAppendsAt rejects extends anywhere but the fork's current end.
func (c *Cache) checkAppendsAt(h *Handle, fork relation.Fork, blkno relation.BlockNumber) error {
	nblocks, err := c.Nblocks(h, fork)
	if err != nil {
		return err
	}

	if blkno != nblocks {
		return errors.NewStorageError(
			nil, errors.ErrAddressing,
			fmt.Sprintf("Extend must append at block %d, got %d", nblocks, blkno),
		).
			WithRelation(h.lb.String()).
			WithFork(fork.String()).
			WithBlock(uint32(blkno))
	}

	return nil
}

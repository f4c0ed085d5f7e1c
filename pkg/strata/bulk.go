package strata

import (
	"go.uber.org/multierr"

	"github.com/iamNilotpal/strata/internal/segio"
	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/relation"
)

// SyncAll flushes every segment with pending unsynced writes across the given
// relations and drains their sync requests. Intended to run once per commit
// over all relations touched, amortizing durability cost.
func (c *Cache) SyncAll(handles []*Handle) error {
	rels := make(map[relation.LocatorBackend]*segio.Relation, len(handles))
	for _, h := range handles {
		if err := c.validateHandle(h); err != nil {
			return err
		}
		rels[h.lb] = h.rel
	}

	return c.store.SyncPending(rels)
}

// UnlinkAll removes all on-disk storage for every fork of each given
// relation. In redo mode a missing main fork is treated as already removed by
// an earlier replay of the same operation. Secondary forks a relation never
// had are skipped in either mode.
func (c *Cache) UnlinkAll(handles []*Handle, mode Mode) error {
	var unlinkErr error

	for _, h := range handles {
		if err := c.validateHandle(h); err != nil {
			return err
		}

		for fork := relation.Fork(0); fork <= relation.MaxFork; fork++ {
			if fork != relation.ForkMain {
				present, err := c.store.Exists(h.rel, fork)
				if err != nil {
					unlinkErr = multierr.Append(unlinkErr, err)
					continue
				}
				if !present {
					continue
				}
			}

			if err := c.store.Unlink(h.rel, fork); err != nil {
				if mode == ModeRedo && errors.TolerableInRedo(errors.CodeOf(err)) {
					continue
				}
				unlinkErr = multierr.Append(unlinkErr, err)
				continue
			}

			h.cachedNblocks[fork] = relation.InvalidBlockNumber
		}

		c.log.Infow("Unlinked relation storage", "relation", h.lb.String(), "mode", mode.String())
	}

	return unlinkErr
}

// ProcessBarrierRelease drops this process's open segment descriptors for all
// handles, keeping cached identity and sizes, so another process can replace
// or remove the underlying files without descriptor conflicts. The return
// value reports whether this participant held any descriptors to release.
func (c *Cache) ProcessBarrierRelease() bool {
	released := false

	for _, h := range c.handles {
		if !h.rel.HasOpenSegments() {
			continue
		}

		released = true
		if err := c.store.CloseRelation(h.rel); err != nil {
			c.log.Errorw("Failed to release descriptors at barrier", "relation", h.lb.String(), "error", err)
		}
	}

	c.log.Infow("Barrier descriptor release", "released", released, "handles", len(c.handles))
	return released
}

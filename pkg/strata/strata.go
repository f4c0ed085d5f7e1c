// Package strata implements the storage-manager switch of a relational
// engine: the layer between the buffer manager and raw disk files. It maps a
// versioned relation identifier to the segment files holding its data, caches
// per-relation state (open descriptors, known sizes) and provides
// block-granular read, write, extend, truncate, sync and unlink operations.
package strata

import (
	"github.com/google/btree"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/strata/internal/segio"
	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/filesys"
	"github.com/iamNilotpal/strata/pkg/options"
	"github.com/iamNilotpal/strata/pkg/relation"
)

// New creates an empty handle cache over the local filesystem. Each cache
// instance is fully independent; a process typically owns exactly one.
func New(log *zap.SugaredLogger, opts ...options.OptionFunc) (*Cache, error) {
	defaultOpts := options.DefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	fs := filesys.NewOS(defaultOpts.FileMode)
	if err := fs.CreateDir(defaultOpts.DataDir, options.DefaultDirMode); err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrMediumIO, "Failed to create data directory",
		).WithPath(defaultOpts.DataDir)
	}

	log.Infow(
		"Initializing storage manager",
		"dataDir", defaultOpts.DataDir,
		"blockSize", defaultOpts.BlockSize,
		"segmentCapacity", defaultOpts.SegmentCapacity,
	)

	return &Cache{
		log:     log,
		opts:    &defaultOpts,
		store:   segio.New(fs, &defaultOpts, log),
		handles: make(map[relation.LocatorBackend]*Handle),
		unowned: btree.NewG(8, func(a, b *Handle) bool { return a.serial < b.serial }),
	}, nil
}

// BlockSize returns the configured transfer unit in bytes. Every buffer
// passed to Read, Write and Extend must have exactly this length.
func (c *Cache) BlockSize() uint32 {
	return c.opts.BlockSize
}

// PendingSyncs returns the number of segments queued for the next batched
// durability pass.
func (c *Cache) PendingSyncs() int {
	return c.store.PendingCount()
}

// Open returns the cached handle for the identifier, creating an unowned one
// with unknown sizes and no open segments if none exists. Idempotent and free
// of I/O: two Opens without an intervening Close return the same handle.
func (c *Cache) Open(lb relation.LocatorBackend) *Handle {
	if h, ok := c.handles[lb]; ok {
		return h
	}

	c.nextSerial++
	h := &Handle{
		lb:          lb,
		serial:      c.nextSerial,
		targetBlock: relation.InvalidBlockNumber,
		rel:         segio.NewRelation(lb),
	}
	for fork := range h.cachedNblocks {
		h.cachedNblocks[fork] = relation.InvalidBlockNumber
	}

	c.handles[lb] = h
	c.unowned.ReplaceOrInsert(h)

	c.log.Infow("Opened relation handle", "relation", lb.String())
	return h
}

// Exists reports whether the fork's storage is present on disk. May probe the
// medium; never mutates cache state.
func (c *Cache) Exists(h *Handle, fork relation.Fork) (bool, error) {
	if err := c.validateHandle(h); err != nil {
		return false, err
	}
	if err := validateFork(fork); err != nil {
		return false, err
	}
	return c.store.Exists(h.rel, fork)
}

// SetOwner records slot as the handle's owner back-reference and removes the
// handle from the unowned set, protecting it from end-of-transaction cleanup.
// A handle already owned by a different slot is rejected: the caller must
// clear the old owner first.
func (c *Cache) SetOwner(slot *OwnerSlot, h *Handle) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}
	if slot == nil {
		return errors.NewUsageError(errors.ErrUsageInvalidInput, "Owner slot must not be nil").
			WithOperation("SetOwner")
	}

	if h.owner == slot {
		return nil
	}

	if h.owner != nil {
		return errors.NewUsageError(
			errors.ErrUsageDoubleOwner, "Handle is already owned by another slot",
		).
			WithOperation("SetOwner").
			WithDetail("relation", h.lb.String())
	}

	if slot.h != nil && slot.h != h {
		return errors.NewUsageError(
			errors.ErrUsageDoubleOwner, "Owner slot already points to another handle",
		).
			WithOperation("SetOwner").
			WithDetail("relation", h.lb.String())
	}

	h.owner = slot
	slot.h = h
	c.unowned.Delete(h)
	return nil
}

// ClearOwner removes the owner back-reference and reinserts the handle into
// the unowned set, making it eligible for automatic destruction at the end of
// the current transactional scope.
func (c *Cache) ClearOwner(slot *OwnerSlot, h *Handle) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}
	if slot == nil {
		return errors.NewUsageError(errors.ErrUsageInvalidInput, "Owner slot must not be nil").
			WithOperation("ClearOwner")
	}

	if h.owner != slot {
		return errors.NewUsageError(
			errors.ErrUsageInvalidInput, "Slot does not own this handle",
		).
			WithOperation("ClearOwner").
			WithDetail("relation", h.lb.String())
	}

	slot.h = nil
	h.owner = nil
	c.unowned.ReplaceOrInsert(h)
	return nil
}

// Close flushes the relation's pending batched syncs, releases every open
// segment descriptor across all forks, removes the handle from the lookup
// table and the owned/unowned sets, nulls the owner slot if one was
// registered and invalidates the handle. Safe on a handle with no open
// segments. The flush must happen here: once the handle is gone the batched
// sync passes have no relation left to drain those entries through.
func (c *Cache) Close(h *Handle) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}

	closeErr := c.store.SyncRelationPending(h.rel)
	closeErr = multierr.Append(closeErr, c.store.CloseRelation(h.rel))

	delete(c.handles, h.lb)
	c.unowned.Delete(h)

	if h.owner != nil {
		h.owner.h = nil
		h.owner = nil
	}
	h.closed = true

	c.log.Infow("Closed relation handle", "relation", h.lb.String())
	return closeErr
}

// CloseAll closes every cached handle; used on full-cache reset.
func (c *Cache) CloseAll() error {
	var closeErr error
	for _, h := range c.snapshotHandles() {
		closeErr = multierr.Append(closeErr, c.Close(h))
	}
	return closeErr
}

// CloseByLocator closes the handle cached for the identifier; no-op if
// absent.
func (c *Cache) CloseByLocator(lb relation.LocatorBackend) error {
	h, ok := c.handles[lb]
	if !ok {
		return nil
	}
	return c.Close(h)
}

// Release closes the handle's open segment descriptors while preserving the
// cache entry, cached sizes and owner linkage. Used to relieve descriptor
// pressure or force reopening files that changed underneath this process;
// segments reopen on demand with no data loss.
func (c *Cache) Release(h *Handle) error {
	if err := c.validateHandle(h); err != nil {
		return err
	}
	return c.store.CloseRelation(h.rel)
}

// ReleaseAll releases descriptors for every cached handle.
func (c *Cache) ReleaseAll() error {
	var releaseErr error
	for _, h := range c.handles {
		releaseErr = multierr.Append(releaseErr, c.store.CloseRelation(h.rel))
	}
	return releaseErr
}

// AtEndOfTransaction destroys every handle still in the unowned set: the
// transient handles nobody adopted during the transaction. Owned handles are
// untouched. Call exactly once per transactional scope boundary.
func (c *Cache) AtEndOfTransaction() error {
	var transient []*Handle
	c.unowned.Ascend(func(h *Handle) bool {
		transient = append(transient, h)
		return true
	})

	var closeErr error
	for _, h := range transient {
		closeErr = multierr.Append(closeErr, c.Close(h))
	}

	if len(transient) > 0 {
		c.log.Infow("End-of-transaction cleanup", "closedHandles", len(transient))
	}
	return closeErr
}

// InvalidateSizes resets every handle's cached block counts and insertion
// target to unknown; invoked on a global cache-flush event, after which sizes
// are recomputed from the medium on demand.
func (c *Cache) InvalidateSizes() {
	for _, h := range c.handles {
		for fork := range h.cachedNblocks {
			h.cachedNblocks[fork] = relation.InvalidBlockNumber
		}
		h.targetBlock = relation.InvalidBlockNumber
	}
}

// Shutdown flushes pending batched syncs for every cached relation and closes
// every handle. The cache must not be used afterwards.
func (c *Cache) Shutdown() error {
	rels := make(map[relation.LocatorBackend]*segio.Relation, len(c.handles))
	for lb, h := range c.handles {
		rels[lb] = h.rel
	}

	err := c.store.SyncPending(rels)
	return multierr.Append(err, c.CloseAll())
}

// snapshotHandles copies the table's values so callers can close while
// iterating.
func (c *Cache) snapshotHandles() []*Handle {
	handles := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	return handles
}

package strata

import (
	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/iamNilotpal/strata/internal/segio"
	"github.com/iamNilotpal/strata/pkg/options"
	"github.com/iamNilotpal/strata/pkg/relation"
)

// Mode selects between normal execution and crash-recovery replay. Replay may
// re-issue operations that already took effect; the errors that would make
// them fail a second time are downgraded to success in ModeRedo.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeRedo
)

func (m Mode) String() string {
	if m == ModeRedo {
		return "redo"
	}
	return "normal"
}

// Handle is the cached in-memory representation of one relation's storage
// state: its identity, an optional owner back-reference, per-fork cached
// block counts and the open segment descriptors. There is never more than one
// live Handle for the same identifier within a Cache.
type Handle struct {
	lb     relation.LocatorBackend
	serial uint64 // Stable allocation order; orders the unowned set.

	// Owner back-reference, nil while unowned. At most one slot per handle.
	owner *OwnerSlot

	// Last known size per fork, InvalidBlockNumber when unknown. Advisory:
	// reliable only while no other process modifies the relation behind this
	// process's back, notably during recovery replay.
	cachedNblocks [relation.MaxFork + 1]relation.BlockNumber

	// Current insertion target block hint. Advisory, reset on open and on a
	// cache flush.
	targetBlock relation.BlockNumber

	rel    *segio.Relation
	closed bool
}

// Locator returns the handle's identifier.
func (h *Handle) Locator() relation.LocatorBackend {
	return h.lb
}

// IsTemp reports whether the handle names session-private storage.
func (h *Handle) IsTemp() bool {
	return h.lb.IsTemp()
}

// TargetBlock returns the cached insertion target hint, InvalidBlockNumber if
// unset.
func (h *Handle) TargetBlock() relation.BlockNumber {
	return h.targetBlock
}

// SetTargetBlock updates the insertion target hint.
func (h *Handle) SetTargetBlock(blkno relation.BlockNumber) {
	h.targetBlock = blkno
}

// OwnerSlot is an external location holding a pointer to a Handle. The cache
// writes through it: adopting a handle fills the slot, closing the handle
// nulls it, so the slot never outlives the handle it points to.
type OwnerSlot struct {
	h *Handle
}

// Get returns the handle the slot currently points to, nil after the handle
// was closed or the slot cleared.
func (s *OwnerSlot) Get() *Handle {
	return s.h
}

// Cache is the relation handle cache: the lookup table mapping identifiers to
// handles, the unowned set of handles eligible for end-of-transaction
// cleanup, and the segment I/O machinery behind the block operations.
//
// A Cache is private to one logical thread of control; nothing is serialized
// internally. Cross-process coordination happens only through
// ProcessBarrierRelease and ordering imposed by the caller's log.
type Cache struct {
	log   *zap.SugaredLogger
	opts  *options.Options
	store *segio.Store

	handles map[relation.LocatorBackend]*Handle
	unowned *btree.BTreeG[*Handle]

	nextSerial uint64
}

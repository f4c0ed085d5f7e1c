package strata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/logger"
	"github.com/iamNilotpal/strata/pkg/options"
	"github.com/iamNilotpal/strata/pkg/relation"
)

var testLocator = relation.LocatorBackend{
	Locator: relation.Locator{Tablespace: 1663, Database: 5, Relation: 16384},
	Backend: relation.InvalidBackendID,
}

// newTestCache builds an independent cache with 4-block segments over a temp
// directory.
func newTestCache(t *testing.T) *Cache {
	t.Helper()

	cache, err := New(
		logger.NewNop(),
		options.WithDataDir(t.TempDir()),
		options.WithBlockSize(1024),
		options.WithSegmentCapacity(4),
	)
	require.NoError(t, err)
	return cache
}

func TestOpenIsIdempotent(t *testing.T) {
	cache := newTestCache(t)

	first := cache.Open(testLocator)
	second := cache.Open(testLocator)
	assert.Same(t, first, second)

	other := testLocator
	other.Locator.Relation = 16385
	assert.NotSame(t, first, cache.Open(other))
}

func TestIndependentCacheInstances(t *testing.T) {
	first := newTestCache(t)
	second := newTestCache(t)

	h1 := first.Open(testLocator)
	h2 := second.Open(testLocator)
	assert.NotSame(t, h1, h2)

	require.NoError(t, first.Close(h1))

	// Closing in one cache leaves the other's handle live.
	_, err := second.Exists(h2, relation.ForkMain)
	assert.NoError(t, err)
}

func TestOwnership(t *testing.T) {
	t.Run("close nulls the owner slot", func(t *testing.T) {
		cache := newTestCache(t)
		h := cache.Open(testLocator)

		slot := &OwnerSlot{}
		require.NoError(t, cache.SetOwner(slot, h))
		assert.Same(t, h, slot.Get())

		otherLocator := testLocator
		otherLocator.Locator.Relation = 99
		otherSlot := &OwnerSlot{}
		require.NoError(t, cache.SetOwner(otherSlot, cache.Open(otherLocator)))

		require.NoError(t, cache.Close(h))
		assert.Nil(t, slot.Get())
		assert.NotNil(t, otherSlot.Get())
	})

	t.Run("double ownership is rejected", func(t *testing.T) {
		cache := newTestCache(t)
		h := cache.Open(testLocator)

		s1, s2 := &OwnerSlot{}, &OwnerSlot{}
		require.NoError(t, cache.SetOwner(s1, h))

		err := cache.SetOwner(s2, h)
		require.Error(t, err)
		ue, ok := errors.AsUsageError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrUsageDoubleOwner, ue.Code())
		assert.Same(t, h, s1.Get())
		assert.Nil(t, s2.Get())
	})

	t.Run("setting the same owner twice is a no-op", func(t *testing.T) {
		cache := newTestCache(t)
		h := cache.Open(testLocator)

		slot := &OwnerSlot{}
		require.NoError(t, cache.SetOwner(slot, h))
		require.NoError(t, cache.SetOwner(slot, h))
	})

	t.Run("clear owner re-enables transactional cleanup", func(t *testing.T) {
		cache := newTestCache(t)
		h := cache.Open(testLocator)

		slot := &OwnerSlot{}
		require.NoError(t, cache.SetOwner(slot, h))
		require.NoError(t, cache.ClearOwner(slot, h))
		assert.Nil(t, slot.Get())

		require.NoError(t, cache.AtEndOfTransaction())
		assert.NotSame(t, h, cache.Open(testLocator))
	})

	t.Run("clearing a slot that is not the owner is rejected", func(t *testing.T) {
		cache := newTestCache(t)
		h := cache.Open(testLocator)

		require.NoError(t, cache.SetOwner(&OwnerSlot{}, h))
		err := cache.ClearOwner(&OwnerSlot{}, h)
		assert.Error(t, err)
	})

	t.Run("nil slot is rejected even on an unowned handle", func(t *testing.T) {
		cache := newTestCache(t)
		h := cache.Open(testLocator)

		err := cache.ClearOwner(nil, h)
		require.Error(t, err)
		ue, ok := errors.AsUsageError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrUsageInvalidInput, ue.Code())
	})
}

func TestAtEndOfTransaction(t *testing.T) {
	cache := newTestCache(t)

	ownedLocator := testLocator
	ownedLocator.Locator.Relation = 2

	transient := cache.Open(testLocator)
	owned := cache.Open(ownedLocator)
	require.NoError(t, cache.SetOwner(&OwnerSlot{}, owned))

	require.NoError(t, cache.AtEndOfTransaction())

	// The unowned handle is gone from the lookup table.
	assert.NotSame(t, transient, cache.Open(testLocator))
	assert.Same(t, owned, cache.Open(ownedLocator))

	// Operations on the destroyed handle are rejected.
	_, err := cache.Exists(transient, relation.ForkMain)
	require.Error(t, err)
	ue, ok := errors.AsUsageError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrUsageClosedHandle, ue.Code())
}

func TestCloseByLocator(t *testing.T) {
	cache := newTestCache(t)
	h := cache.Open(testLocator)

	require.NoError(t, cache.CloseByLocator(testLocator))
	assert.NotSame(t, h, cache.Open(testLocator))

	// Absent identifier is a no-op.
	absent := testLocator
	absent.Locator.Relation = 424242
	assert.NoError(t, cache.CloseByLocator(absent))
}

func TestCloseAll(t *testing.T) {
	cache := newTestCache(t)

	other := testLocator
	other.Locator.Relation = 7
	first := cache.Open(testLocator)
	second := cache.Open(other)
	require.NoError(t, cache.SetOwner(&OwnerSlot{}, second))

	require.NoError(t, cache.CloseAll())

	assert.NotSame(t, first, cache.Open(testLocator))
	assert.NotSame(t, second, cache.Open(other))
}

func TestExists(t *testing.T) {
	cache := newTestCache(t)
	h := cache.Open(testLocator)

	present, err := cache.Exists(h, relation.ForkMain)
	require.NoError(t, err)
	assert.False(t, present)

	require.NoError(t, cache.Create(h, relation.ForkMain, ModeNormal))

	present, err = cache.Exists(h, relation.ForkMain)
	require.NoError(t, err)
	assert.True(t, present)
}

func TestProcessBarrierRelease(t *testing.T) {
	cache := newTestCache(t)
	h := cache.Open(testLocator)

	// No descriptors open yet: nothing to release.
	assert.False(t, cache.ProcessBarrierRelease())

	require.NoError(t, cache.Create(h, relation.ForkMain, ModeNormal))
	assert.True(t, cache.ProcessBarrierRelease())

	// Identity and cached sizes survive the release.
	assert.Same(t, h, cache.Open(testLocator))
	assert.False(t, cache.ProcessBarrierRelease())
}

func TestInvalidateSizes(t *testing.T) {
	cache := newTestCache(t)
	h := cache.Open(testLocator)
	require.NoError(t, cache.Create(h, relation.ForkMain, ModeNormal))
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 10, true))

	require.Equal(t, relation.BlockNumber(10), cache.NblocksCached(h, relation.ForkMain))
	h.SetTargetBlock(3)

	cache.InvalidateSizes()

	assert.Equal(t, relation.InvalidBlockNumber, cache.NblocksCached(h, relation.ForkMain))
	assert.Equal(t, relation.InvalidBlockNumber, h.TargetBlock())

	// Authoritative size is recomputed from the medium.
	nblocks, err := cache.Nblocks(h, relation.ForkMain)
	require.NoError(t, err)
	assert.Equal(t, relation.BlockNumber(10), nblocks)
}

func TestCloseFlushesPendingSyncs(t *testing.T) {
	cache := newTestCache(t)
	h := cache.Open(testLocator)
	require.NoError(t, cache.Create(h, relation.ForkMain, ModeNormal))

	block := make([]byte, cache.BlockSize())
	require.NoError(t, cache.Extend(h, relation.ForkMain, 0, block, false))
	require.NotZero(t, cache.PendingSyncs())

	// Transactional cleanup destroys the unowned handle; its queued
	// durability requests must be honored then, not left behind where no
	// later batched pass can reach them.
	require.NoError(t, cache.AtEndOfTransaction())
	assert.Zero(t, cache.PendingSyncs())

	require.NoError(t, cache.Shutdown())
	assert.Zero(t, cache.PendingSyncs())
}

func TestShutdown(t *testing.T) {
	cache := newTestCache(t)
	h := cache.Open(testLocator)
	require.NoError(t, cache.Create(h, relation.ForkMain, ModeNormal))

	block := make([]byte, cache.BlockSize())
	require.NoError(t, cache.Extend(h, relation.ForkMain, 0, block, false))
	require.NotZero(t, cache.PendingSyncs())

	require.NoError(t, cache.Shutdown())
	assert.Zero(t, cache.PendingSyncs())

	_, err := cache.Exists(h, relation.ForkMain)
	assert.Error(t, err)
}

package strata

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/strata/pkg/errors"
	"github.com/iamNilotpal/strata/pkg/relation"
)

func newTestRelation(t *testing.T) (*Cache, *Handle) {
	t.Helper()

	cache := newTestCache(t)
	h := cache.Open(testLocator)
	require.NoError(t, cache.Create(h, relation.ForkMain, ModeNormal))
	return cache, h
}

func block(c *Cache, b byte) []byte {
	return bytes.Repeat([]byte{b}, int(c.BlockSize()))
}

func TestExtendSizeConsistency(t *testing.T) {
	cache, h := newTestRelation(t)

	// Segment capacity is 4 blocks: ten blocks span segments of 4, 4 and 2.
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 10, true))

	nblocks, err := cache.Nblocks(h, relation.ForkMain)
	require.NoError(t, err)
	assert.Equal(t, relation.BlockNumber(10), nblocks)
	assert.Equal(t, relation.BlockNumber(10), cache.NblocksCached(h, relation.ForkMain))
}

func TestExtendAppendOnly(t *testing.T) {
	cache, h := newTestRelation(t)

	require.NoError(t, cache.Extend(h, relation.ForkMain, 0, block(cache, 1), true))

	// Anything but the current end is an addressing error.
	err := cache.Extend(h, relation.ForkMain, 5, block(cache, 2), true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAddressing))

	err = cache.Extend(h, relation.ForkMain, 0, block(cache, 2), true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAddressing))

	require.NoError(t, cache.Extend(h, relation.ForkMain, 1, block(cache, 2), true))
	assert.Equal(t, relation.BlockNumber(2), cache.NblocksCached(h, relation.ForkMain))
}

func TestReadWriteBounds(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 3, true))

	buf := make([]byte, cache.BlockSize())

	t.Run("read beyond the fork size is an addressing error", func(t *testing.T) {
		err := cache.Read(h, relation.ForkMain, 3, buf)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrAddressing))
	})

	t.Run("write beyond the fork size is an addressing error", func(t *testing.T) {
		err := cache.Write(h, relation.ForkMain, 3, buf, true)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrAddressing))
	})

	t.Run("in-bounds round trip", func(t *testing.T) {
		want := block(cache, 0x5A)
		require.NoError(t, cache.Write(h, relation.ForkMain, 2, want, true))

		got := make([]byte, cache.BlockSize())
		require.NoError(t, cache.Read(h, relation.ForkMain, 2, got))
		assert.Equal(t, want, got)
	})

	t.Run("wrong buffer size is a usage error", func(t *testing.T) {
		err := cache.Read(h, relation.ForkMain, 0, make([]byte, 100))
		require.Error(t, err)
		ue, ok := errors.AsUsageError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrUsageBufferSize, ue.Code())
	})
}

func TestTruncateShrinksAndBlocksFutureReads(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 10, true))

	require.NoError(t, cache.Truncate(h, []relation.Fork{relation.ForkMain}, []relation.BlockNumber{5}))
	assert.Equal(t, relation.BlockNumber(5), cache.NblocksCached(h, relation.ForkMain))

	buf := make([]byte, cache.BlockSize())

	err := cache.Read(h, relation.ForkMain, 5, buf)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAddressing))

	assert.NoError(t, cache.Read(h, relation.ForkMain, 4, buf))
}

func TestTruncateValidation(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 4, true))

	t.Run("growth through truncate is rejected", func(t *testing.T) {
		err := cache.Truncate(h, []relation.Fork{relation.ForkMain}, []relation.BlockNumber{9})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrAddressing))
	})

	t.Run("mismatched list lengths are rejected", func(t *testing.T) {
		err := cache.Truncate(h, []relation.Fork{relation.ForkMain}, nil)
		assert.Error(t, err)
	})
}

func TestReleaseIsTransparent(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 5, true))

	want := block(cache, 0x42)
	require.NoError(t, cache.Write(h, relation.ForkMain, 2, want, true))

	require.NoError(t, cache.Release(h))

	// Cached metadata survives, the segment reopens on demand and returns the
	// same content.
	assert.Equal(t, relation.BlockNumber(5), cache.NblocksCached(h, relation.ForkMain))

	got := make([]byte, cache.BlockSize())
	require.NoError(t, cache.Read(h, relation.ForkMain, 2, got))
	assert.Equal(t, want, got)
}

func TestRedoTolerance(t *testing.T) {
	t.Run("create tolerates existing storage in redo mode only", func(t *testing.T) {
		cache, h := newTestRelation(t)
		require.NoError(t, cache.Release(h))

		err := cache.Create(h, relation.ForkMain, ModeNormal)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrAlreadyExists))

		assert.NoError(t, cache.Create(h, relation.ForkMain, ModeRedo))
	})

	t.Run("unlink tolerates missing storage in redo mode only", func(t *testing.T) {
		cache, h := newTestRelation(t)
		require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 10, true))

		require.NoError(t, cache.UnlinkAll([]*Handle{h}, ModeNormal))

		// A second removal replays the same logical operation.
		err := cache.UnlinkAll([]*Handle{h}, ModeNormal)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrNotFound))

		assert.NoError(t, cache.UnlinkAll([]*Handle{h}, ModeRedo))
	})
}

func TestUnlinkAllRemovesEveryFork(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.Create(h, relation.ForkFSM, ModeNormal))
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 10, true))
	require.NoError(t, cache.ZeroExtend(h, relation.ForkFSM, 0, 2, true))

	require.NoError(t, cache.UnlinkAll([]*Handle{h}, ModeNormal))

	for _, fork := range []relation.Fork{relation.ForkMain, relation.ForkFSM} {
		present, err := cache.Exists(h, fork)
		require.NoError(t, err)
		assert.False(t, present, "fork %s should be gone", fork)
	}
	assert.Equal(t, relation.InvalidBlockNumber, cache.NblocksCached(h, relation.ForkMain))
}

func TestSyncAll(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 6, true))

	t.Run("skipFsync defers durability to the caller", func(t *testing.T) {
		require.NoError(t, cache.Write(h, relation.ForkMain, 0, block(cache, 1), true))
		assert.Zero(t, cache.PendingSyncs())
	})

	t.Run("tracked writes drain on the commit pass", func(t *testing.T) {
		require.NoError(t, cache.Write(h, relation.ForkMain, 0, block(cache, 1), false))
		require.NoError(t, cache.Write(h, relation.ForkMain, 5, block(cache, 2), false))
		require.NotZero(t, cache.PendingSyncs())

		require.NoError(t, cache.SyncAll([]*Handle{h}))
		assert.Zero(t, cache.PendingSyncs())
	})
}

func TestImmediateSync(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 10, false))
	require.NotZero(t, cache.PendingSyncs())

	// Even with every descriptor released the fork reopens and syncs.
	require.NoError(t, cache.Release(h))
	require.NoError(t, cache.ImmediateSync(h, relation.ForkMain))
	assert.Zero(t, cache.PendingSyncs())
}

func TestPrefetchAndWriteBack(t *testing.T) {
	cache, h := newTestRelation(t)

	assert.False(t, cache.Prefetch(h, relation.ForkFSM, 0))

	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 6, true))
	assert.True(t, cache.Prefetch(h, relation.ForkMain, 5))

	// A scheduling hint must never fail, open descriptors or not.
	cache.WriteBack(h, relation.ForkMain, 0, 6)
	require.NoError(t, cache.Release(h))
	cache.WriteBack(h, relation.ForkMain, 0, 6)
}

func TestNblocksProbesUnknownSize(t *testing.T) {
	cache, h := newTestRelation(t)
	require.NoError(t, cache.ZeroExtend(h, relation.ForkMain, 0, 7, true))

	// A fresh handle for the same identifier starts with unknown sizes and
	// must probe the segment files.
	require.NoError(t, cache.Close(h))
	reopened := cache.Open(testLocator)
	assert.Equal(t, relation.InvalidBlockNumber, cache.NblocksCached(reopened, relation.ForkMain))

	nblocks, err := cache.Nblocks(reopened, relation.ForkMain)
	require.NoError(t, err)
	assert.Equal(t, relation.BlockNumber(7), nblocks)
	assert.Equal(t, relation.BlockNumber(7), cache.NblocksCached(reopened, relation.ForkMain))
}

func TestMissingForkSurfacesNotFound(t *testing.T) {
	cache, h := newTestRelation(t)

	_, err := cache.Nblocks(h, relation.ForkVisibility)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

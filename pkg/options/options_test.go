package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, DefaultDataDir, opts.DataDir)
	assert.Equal(t, DefaultBlockSize, opts.BlockSize)
	assert.Equal(t, DefaultSegmentCapacity, opts.SegmentCapacity)
	assert.Equal(t, int64(1)<<30, opts.SegmentBytes())
}

func TestOptionSetters(t *testing.T) {
	t.Run("valid values apply", func(t *testing.T) {
		opts := DefaultOptions()
		WithDataDir("/tmp/strata")(&opts)
		WithBlockSize(4096)(&opts)
		WithSegmentCapacity(4)(&opts)
		WithFileMode(0600)(&opts)

		assert.Equal(t, "/tmp/strata", opts.DataDir)
		assert.Equal(t, uint32(4096), opts.BlockSize)
		assert.Equal(t, uint32(4), opts.SegmentCapacity)
		assert.Equal(t, os.FileMode(0600), opts.FileMode)
	})

	t.Run("invalid values keep previous settings", func(t *testing.T) {
		opts := DefaultOptions()
		WithDataDir("   ")(&opts)
		WithBlockSize(3000)(&opts) // not a power of two
		WithBlockSize(512)(&opts)  // below minimum
		WithSegmentCapacity(0)(&opts)

		assert.Equal(t, DefaultDataDir, opts.DataDir)
		assert.Equal(t, DefaultBlockSize, opts.BlockSize)
		assert.Equal(t, DefaultSegmentCapacity, opts.SegmentCapacity)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("applies configured keys and keeps the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "strata.toml")
		content := "data_dir = \"/tmp/strata-conf\"\nblock_size = 4096\nsegment_capacity = 16\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		opt, err := LoadFile(path)
		require.NoError(t, err)

		opts := DefaultOptions()
		opt(&opts)

		assert.Equal(t, "/tmp/strata-conf", opts.DataDir)
		assert.Equal(t, uint32(4096), opts.BlockSize)
		assert.Equal(t, uint32(16), opts.SegmentCapacity)
		assert.Equal(t, DefaultFileMode, opts.FileMode)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("block_size = ["), 0644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

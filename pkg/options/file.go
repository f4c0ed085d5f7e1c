package options

import (
	"os"

	"github.com/pelletier/go-toml"

	"github.com/iamNilotpal/strata/pkg/errors"
)

// LoadFile reads a TOML configuration file and returns an OptionFunc applying
// its values on top of whatever the caller already configured. Unset keys
// keep their previous values.
func LoadFile(path string) (OptionFunc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrConfigLoadFailed, "Failed to read configuration file",
		).WithPath(path)
	}

	var fileOpts struct {
		DataDir         string `toml:"data_dir"`
		BlockSize       int64  `toml:"block_size"`
		SegmentCapacity int64  `toml:"segment_capacity"`
		FileMode        int64  `toml:"file_mode"`
	}

	if err := toml.Unmarshal(data, &fileOpts); err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrConfigLoadFailed, "Failed to parse configuration file",
		).WithPath(path)
	}

	return func(o *Options) {
		WithDataDir(fileOpts.DataDir)(o)
		if fileOpts.BlockSize > 0 {
			WithBlockSize(uint32(fileOpts.BlockSize))(o)
		}
		if fileOpts.SegmentCapacity > 0 {
			WithSegmentCapacity(uint32(fileOpts.SegmentCapacity))(o)
		}
		if fileOpts.FileMode > 0 {
			WithFileMode(os.FileMode(fileOpts.FileMode))(o)
		}
	}, nil
}

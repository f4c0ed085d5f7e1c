// Package options provides data structures and functions for configuring the
// Strata storage manager.
package options

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Defines the configuration parameters for a storage manager instance.
type Options struct {
	// Specifies the base path where relation segment files are stored.
	//
	// Default: "/var/lib/strata"
	DataDir string `json:"dataDir" toml:"data_dir"`

	// Size of one block in bytes. Every read and write transfers exactly one
	// block.
	//
	//  - Default: 8KB
	//  - Minimum: 1KB
	//  - Maximum: 32KB
	//  - Must be a power of two.
	BlockSize uint32 `json:"blockSize" toml:"block_size"`

	// Number of blocks held by one segment file before the fork rolls over
	// to the next numbered segment.
	//
	//  - Default: 131072 (1GB of 8KB blocks)
	//  - Minimum: 1
	SegmentCapacity uint32 `json:"segmentCapacity" toml:"segment_capacity"`

	// Permission bits for created segment files.
	//
	// Default: 0644
	FileMode os.FileMode `json:"fileMode" toml:"file_mode"`
}

type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := DefaultOptions()
		o.DataDir = opts.DataDir
		o.BlockSize = opts.BlockSize
		o.SegmentCapacity = opts.SegmentCapacity
		o.FileMode = opts.FileMode
	}
}

// Sets the base data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the block size in bytes.
func WithBlockSize(size uint32) OptionFunc {
	return func(o *Options) {
		if size >= MinBlockSize && size <= MaxBlockSize && size&(size-1) == 0 {
			o.BlockSize = size
		}
	}
}

// Sets the segment capacity in blocks.
func WithSegmentCapacity(blocks uint32) OptionFunc {
	return func(o *Options) {
		if blocks >= MinSegmentCapacity {
			o.SegmentCapacity = blocks
		}
	}
}

// Sets the permission bits for created segment files.
func WithFileMode(mode os.FileMode) OptionFunc {
	return func(o *Options) {
		if mode != 0 {
			o.FileMode = mode
		}
	}
}

// SegmentBytes returns the byte length of one full segment file.
func (o *Options) SegmentBytes() int64 {
	return int64(o.SegmentCapacity) * int64(o.BlockSize)
}

// FormatBytes converts byte count to human-readable format for error messages.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	var units = []string{"B", "KB", "MB", "GB", "TB"}

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	exp := 0
	value := float64(bytes)

	for value >= unit && exp < len(units)-1 {
		value /= unit
		exp++
	}

	if math.Abs(value-math.Round(value)) < 0.01 {
		return fmt.Sprintf("%.0f %s", math.Round(value), units[exp])
	}
	return fmt.Sprintf("%.2f %s", value, units[exp])
}

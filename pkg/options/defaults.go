package options

import "os"

const (
	DefaultDataDir string = "/var/lib/strata"

	MinBlockSize     uint32 = 1 * 1024
	MaxBlockSize     uint32 = 32 * 1024
	DefaultBlockSize uint32 = 8 * 1024

	// One segment of default-size blocks spans 1GB.
	MinSegmentCapacity     uint32 = 1
	DefaultSegmentCapacity uint32 = 131072

	DefaultFileMode os.FileMode = 0644
	DefaultDirMode  os.FileMode = 0755
)

var defaultOptions = Options{
	DataDir:         DefaultDataDir,
	BlockSize:       DefaultBlockSize,
	SegmentCapacity: DefaultSegmentCapacity,
	FileMode:        DefaultFileMode,
}

func DefaultOptions() Options {
	return defaultOptions
}

//go:build !linux

package filesys

import "os"

// Cache hints are advisory; platforms without fadvise/sync_file_range
// just skip them.

func prefetch(_ *os.File, _, _ int64) error {
	return nil
}

func writeBack(_ *os.File, _, _ int64) error {
	return nil
}

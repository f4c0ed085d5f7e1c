//go:build linux

package filesys

import (
	"os"

	"golang.org/x/sys/unix"
)

func prefetch(f *os.File, off, length int64) error {
	return unix.Fadvise(int(f.Fd()), off, length, unix.FADV_WILLNEED)
}

func writeBack(f *os.File, off, length int64) error {
	return unix.SyncFileRange(int(f.Fd()), off, length, unix.SYNC_FILE_RANGE_WRITE)
}

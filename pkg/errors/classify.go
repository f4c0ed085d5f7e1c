package errors

import (
	"fmt"
	"io/fs"
	"syscall"

	stdErrors "errors"
)

// ClassifyOpenError maps an OS-level open failure onto the storage taxonomy:
// missing file, already-present file on exclusive create, descriptor
// exhaustion, everything else a medium failure.
func ClassifyOpenError(err error, path string) *StorageError {
	switch {
	case stdErrors.Is(err, fs.ErrNotExist):
		return NewStorageError(err, ErrNotFound,
			fmt.Sprintf("segment file %s does not exist", path)).WithPath(path)
	case stdErrors.Is(err, fs.ErrExist):
		return NewStorageError(err, ErrAlreadyExists,
			fmt.Sprintf("segment file %s already exists", path)).WithPath(path)
	case stdErrors.Is(err, syscall.EMFILE), stdErrors.Is(err, syscall.ENFILE):
		return NewStorageError(err, ErrResourceExhausted,
			fmt.Sprintf("out of file descriptors opening %s", path)).WithPath(path)
	default:
		return NewStorageError(err, ErrMediumIO,
			fmt.Sprintf("failed to open segment file %s", path)).WithPath(path)
	}
}

// ClassifyRemoveError maps an OS-level unlink failure: a missing file is
// ErrNotFound so replay can tolerate re-removal, everything else is a medium
// failure.
func ClassifyRemoveError(err error, path string) *StorageError {
	if stdErrors.Is(err, fs.ErrNotExist) {
		return NewStorageError(err, ErrNotFound,
			fmt.Sprintf("segment file %s already removed", path)).WithPath(path)
	}
	return NewStorageError(err, ErrMediumIO,
		fmt.Sprintf("failed to remove segment file %s", path)).WithPath(path)
}

package errors

import (
	stdErrors "errors"
)

func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func AsUsageError(err error) (*UsageError, bool) {
	var ue *UsageError
	if stdErrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// CodeOf extracts the error code from any error produced by this package;
// it returns ErrMediumIO for errors that carry no code of their own.
func CodeOf(err error) ErrorCode {
	if se, ok := AsStorageError(err); ok {
		return se.Code()
	}
	if ue, ok := AsUsageError(err); ok {
		return ue.Code()
	}
	return ErrMediumIO
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

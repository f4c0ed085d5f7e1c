package errors

type ErrorCode string

const (
	// ErrAddressing marks a block number at or beyond the fork's current size
	// on a read, overwrite or non-append extend. Never retried.
	ErrAddressing ErrorCode = "STORAGE_ADDRESSING"

	// ErrAlreadyExists marks a create of storage that is already present.
	// Tolerated in redo mode only.
	ErrAlreadyExists ErrorCode = "STORAGE_ALREADY_EXISTS"

	// ErrNotFound marks access or removal of a segment file that does not
	// exist. Tolerated in redo mode only.
	ErrNotFound ErrorCode = "STORAGE_NOT_FOUND"

	// ErrMediumIO marks a read, write, fsync, truncate or remove primitive
	// failing for any reason other than the above. Always fatal.
	ErrMediumIO ErrorCode = "STORAGE_MEDIUM_IO"

	// ErrResourceExhausted marks descriptor limits reached while opening a
	// segment. Callers may release descriptors and retry themselves.
	ErrResourceExhausted ErrorCode = "STORAGE_RESOURCE_EXHAUSTED"

	// ErrShortTransfer marks a positioned read or write that moved fewer
	// bytes than one block.
	ErrShortTransfer ErrorCode = "STORAGE_SHORT_TRANSFER"

	ErrUsageDoubleOwner   ErrorCode = "USAGE_DOUBLE_OWNER"
	ErrUsageClosedHandle  ErrorCode = "USAGE_CLOSED_HANDLE"
	ErrUsageInvalidFork   ErrorCode = "USAGE_INVALID_FORK"
	ErrUsageBufferSize    ErrorCode = "USAGE_BUFFER_SIZE"
	ErrUsageInvalidInput  ErrorCode = "USAGE_INVALID_INPUT"
	ErrConfigInvalidValue ErrorCode = "CONFIG_INVALID_VALUE"
	ErrConfigLoadFailed   ErrorCode = "CONFIG_LOAD_FAILED"
)

// redoTolerated lists the error codes downgraded to success while replaying
// already-applied operations after a crash. Everything absent is surfaced
// regardless of mode.
var redoTolerated = map[ErrorCode]bool{
	ErrAlreadyExists: true,
	ErrNotFound:      true,
}

// TolerableInRedo reports whether an error with the given code is suppressed
// when the caller is running in replay mode.
func TolerableInRedo(code ErrorCode) bool {
	return redoTolerated[code]
}

package errors

// StorageError is a specialized error type for segment and block level
// storage operations.
type StorageError struct {
	*baseError
	relation string
	fork     string
	block    uint32
	segment  uint32
	path     string
}

// NewStorageError creates a new storage-specific error with the provided context.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg), block: 0xFFFFFFFF}
}

// WithMessage updates the error message.
func (se *StorageError) WithMessage(msg string) *StorageError {
	se.baseError.WithMessage(msg)
	return se
}

// WithCode sets the error code.
func (se *StorageError) WithCode(code ErrorCode) *StorageError {
	se.baseError.WithCode(code)
	return se
}

// WithDetail adds contextual information.
func (se *StorageError) WithDetail(key string, value any) *StorageError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithRelation records which relation was involved in the error.
func (se *StorageError) WithRelation(relation string) *StorageError {
	se.relation = relation
	return se
}

// WithFork records which fork was being accessed.
func (se *StorageError) WithFork(fork string) *StorageError {
	se.fork = fork
	return se
}

// WithBlock records the block number the operation addressed.
func (se *StorageError) WithBlock(block uint32) *StorageError {
	se.block = block
	return se
}

// WithSegment records the segment index within the fork.
func (se *StorageError) WithSegment(segment uint32) *StorageError {
	se.segment = segment
	return se
}

// WithPath captures which filesystem path was being processed during the error.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// Relation returns the relation identifier involved in the error.
func (se *StorageError) Relation() string {
	return se.relation
}

// Fork returns the fork name involved in the error.
func (se *StorageError) Fork() string {
	return se.fork
}

// Block returns the block number the failed operation addressed.
func (se *StorageError) Block() uint32 {
	return se.block
}

// Segment returns the segment index where the error occurred.
func (se *StorageError) Segment() uint32 {
	return se.segment
}

// Path returns the full filesystem path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}

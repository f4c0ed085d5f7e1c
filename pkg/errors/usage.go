package errors

// UsageError reports a violated caller contract: double ownership, an
// operation on a closed handle, a buffer of the wrong size. These are
// programming mistakes, not medium failures.
type UsageError struct {
	*baseError
	operation string
	provided  any
	expected  any
}

func NewUsageError(code ErrorCode, msg string) *UsageError {
	return &UsageError{baseError: NewBaseError(nil, code, msg)}
}

func (ue *UsageError) WithMessage(msg string) *UsageError {
	ue.baseError.WithMessage(msg)
	return ue
}

func (ue *UsageError) WithDetail(key string, value any) *UsageError {
	ue.baseError.WithDetail(key, value)
	return ue
}

// WithOperation records which cache operation was mis-called.
func (ue *UsageError) WithOperation(operation string) *UsageError {
	ue.operation = operation
	return ue
}

func (ue *UsageError) WithProvided(value any) *UsageError {
	ue.provided = value
	return ue
}

func (ue *UsageError) WithExpected(value any) *UsageError {
	ue.expected = value
	return ue
}

func (ue *UsageError) Operation() string {
	return ue.operation
}

func (ue *UsageError) Provided() any {
	return ue.provided
}

func (ue *UsageError) Expected() any {
	return ue.expected
}

package encoder

import "errors"

// Error taxonomy. These sentinels let callers classify failures with
// errors.Is regardless of the wrapping context.
var (
	// ErrBatchSize reports a non-positive batch size in WriteOptions.
	ErrBatchSize = errors.New("invalid batch size")

	// ErrSchemaMismatch reports a batch whose column count or types
	// disagree with the declared schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnsupportedType reports a field type with no rendering rule.
	ErrUnsupportedType = errors.New("unsupported column type")

	// ErrSinkWrite reports a failed sink append. The sink's own error is
	// wrapped alongside it. Bytes already appended are not rolled back.
	ErrSinkWrite = errors.New("sink write error")
)

// Provides common octo errors definitions.
package octo_errors

import "errors"

// Codec errors: the input bytes are malformed. The document is never touched.
var (
	ErrTruncated      = errors.New("octo: truncated buffer")
	ErrInvalidTag     = errors.New("octo: invalid tag")
	ErrInvalidUTF8    = errors.New("octo: invalid utf-8 string")
	ErrVarintOverflow = errors.New("octo: varint overflows 64 bits")
	ErrTooDeep        = errors.New("octo: value nested too deep")
	ErrMalformed      = errors.New("octo: malformed record")
)

// Structural errors: the data is well-formed but can not be accepted.
var (
	ErrDuplicateID     = errors.New("octo: block id already used")
	ErrClockGap        = errors.New("octo: clock sequence gap")
	ErrPendingOverflow = errors.New("octo: pending buffer is full")
	ErrTypeMismatch    = errors.New("octo: shared type kind mismatch")
	ErrIndexOutOfRange = errors.New("octo: index out of range")
)

// Usage errors.
var (
	ErrTransactionOpen    = errors.New("octo: another transaction is open")
	ErrTransactionClosed  = errors.New("octo: transaction is closed")
	ErrForeignTransaction = errors.New("octo: transaction belongs to another document")
	ErrDocDestroyed       = errors.New("octo: document destroyed")
	ErrHandleInvalid      = errors.New("octo: invalid handle")
)

// IsCodec reports whether err means the input bytes were malformed.
func IsCodec(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrInvalidTag) ||
		errors.Is(err, ErrInvalidUTF8) ||
		errors.Is(err, ErrVarintOverflow) ||
		errors.Is(err, ErrTooDeep) ||
		errors.Is(err, ErrMalformed)
}

package host

import (
	"errors"

	"github.com/drpcorg/octo/octo_errors"
)

// Kind is what a binding needs to know about an error.
type Kind int

const (
	KindNone Kind = iota
	// KindMalformed: the bytes are broken, retrying will not help.
	KindMalformed
	// KindConflict: the data is fine but does not fit the document state.
	KindConflict
	// KindUsage: the caller used a closed transaction or a dead handle.
	KindUsage
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformed:
		return "malformed"
	case KindConflict:
		return "conflict"
	case KindUsage:
		return "usage"
	}
	return "internal"
}

func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case octo_errors.IsCodec(err):
		return KindMalformed
	case errors.Is(err, octo_errors.ErrDuplicateID),
		errors.Is(err, octo_errors.ErrClockGap),
		errors.Is(err, octo_errors.ErrPendingOverflow),
		errors.Is(err, octo_errors.ErrTypeMismatch),
		errors.Is(err, octo_errors.ErrIndexOutOfRange):
		return KindConflict
	case errors.Is(err, octo_errors.ErrTransactionOpen),
		errors.Is(err, octo_errors.ErrTransactionClosed),
		errors.Is(err, octo_errors.ErrForeignTransaction),
		errors.Is(err, octo_errors.ErrDocDestroyed),
		errors.Is(err, octo_errors.ErrHandleInvalid):
		return KindUsage
	}
	return KindInternal
}

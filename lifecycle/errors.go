package lifecycle

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the expected, caller-recoverable outcomes of a
// lifecycle operation. Anything else that comes back from an operation is an
// infrastructure fault and should be treated as a server error.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindForbidden            ErrorKind = "forbidden"
	KindInvalidTransition    ErrorKind = "invalid_transition"
	KindDuplicateContract    ErrorKind = "duplicate_contract"
	KindEmptyMessage         ErrorKind = "empty_message"
	KindPaymentRequired      ErrorKind = "payment_required"
	KindAlreadySigned        ErrorKind = "already_signed"
	KindAlreadyPaid          ErrorKind = "already_paid"
	KindVersionConflict      ErrorKind = "version_conflict"
	KindInvalidProposalState ErrorKind = "invalid_proposal_state"
	KindValidation           ErrorKind = "validation"
)

// Error is a typed lifecycle failure. Operations return it for every expected
// rejection so callers can branch on Kind without string matching.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the lifecycle error kind, if err is one.
func KindOf(err error) (ErrorKind, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a lifecycle error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

package booking

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for both the caller and the error log. The
// annealing analyzer clusters events by kind, so new failures should map to
// one of these rather than invent ad hoc strings.
type Kind string

const (
	KindConflict     Kind = "conflict"      // slot no longer available
	KindNotFound     Kind = "not_found"     // unknown appointment or session reference
	KindInvalidState Kind = "invalid_state" // operation not valid for the current status
	KindValidation   Kind = "validation"    // malformed or missing required field
	KindUpstream     Kind = "upstream"      // AI/transport collaborator failed or timed out
	KindStorage      Kind = "storage"       // persistence layer unavailable
)

// Error is the typed error for all scheduling operations.
type Error struct {
	Kind    Kind
	Op      string // originating operation, e.g. "booking.create"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func wrapStorage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Message: "storage operation failed", Err: err}
}

// KindOf extracts the taxonomy kind from an error chain. Errors that do not
// carry a Kind are treated as upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

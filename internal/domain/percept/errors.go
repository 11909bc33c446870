package percept

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so outer layers can map them to a status.
type Kind string

const (
	// KindInvalidInput covers empty documents and unrecognized modes.
	KindInvalidInput Kind = "invalid_input"
	// KindDataIntegrity covers percepts with unknown or zero cardinality.
	// These are recovered locally and only surface through Diagnostics.
	KindDataIntegrity Kind = "data_integrity"
	// KindDependencyUnavailable covers store and name-table failures during build.
	KindDependencyUnavailable Kind = "dependency_unavailable"
	// KindNotImplemented covers percept sets other than PerceptSetAll.
	KindNotImplemented Kind = "not_implemented"
)

// MessageMissingDocument is the caller-facing message for an empty document.
const MessageMissingDocument = "The document is missing."

// MessageNotImplemented is the caller-facing message for unsupported percept sets.
const MessageNotImplemented = "Not Implemented"

// ErrEmptyDocument is wrapped by Analyze when the document has no text or no tokens.
var ErrEmptyDocument = errors.New("document is missing")

// ErrZeroPerceptLength is wrapped by Score for a percept with no members.
var ErrZeroPerceptLength = errors.New("percept has zero length")

// Error is a classified engine error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError wraps err with a kind and the operation that failed.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

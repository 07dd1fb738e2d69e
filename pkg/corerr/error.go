// Package corerr provides the engine's structured error type. It follows the
// same shape as the teacher repository's pkg/errors (a Code-tagged error with
// an optional wrapped cause), adapted to spec.md's ErrorKind taxonomy and to
// carrying an optional tag.Query that scopes which tags a failure aborts.
package corerr

import (
	"fmt"

	"github.com/corvidlabs/corvid/pkg/tag"
)

// Kind classifies the origin of an Error.
type Kind string

const (
	KindHTTP    Kind = "HTTP"
	KindDataset Kind = "DATASET"
	KindWorker  Kind = "WORKER"
	KindBackend Kind = "BACKEND"
	KindContext Kind = "CONTEXT"
	KindIO      Kind = "IO"
	KindTimeout Kind = "TIMEOUT"
	KindOther   Kind = "OTHER"
)

// Error is the engine's uniform error type. It carries a Kind, a message, an
// optional wrapped cause, and an optional tag.Query that scopes a retry or
// abort when the error is converted to a FlowControl signal (see
// pkg/coresignal).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Query   *tag.Query
}

// New creates an Error with a formatted message and no cause or query.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps an existing error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithQuery attaches a tag.Query to e, returning e for chaining. A non-nil
// query turns the error into a Fail(query, err) signal instead of the
// default Hold(Owner, 0) scoped-retry hint (spec.md §7).
func (e *Error) WithQuery(q tag.Query) *Error {
	e.Query = &q
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any, enabling errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, supporting
// errors.Is(err, corerr.New(corerr.KindHTTP, "")) style sentinel checks on
// Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Package coresignal implements the FlowControl signal that a handler
// returns to steer the driver (spec.md §4.D), and the conversions ("Into
// FlowControl") that let handlers and extractors return something other than
// a bare Signal.
package coresignal

import (
	"time"

	"github.com/corvidlabs/corvid/pkg/corerr"
	"github.com/corvidlabs/corvid/pkg/tag"
)

// Kind enumerates the shapes a Signal can take.
type Kind int

const (
	// Continue is the default: proceed, no scheduling side effect.
	Continue Kind = iota
	// Skip: proceed, but this invocation counts as a failure for metrics.
	Skip
	// Wait defers matched tags without counting as a failure for metrics.
	Wait
	// Hold defers matched tags and counts as a failure for metrics.
	Hold
	// Fail aborts the matched tags' processing.
	Fail
)

// Signal is the handler's return value (spec.md §3 "FlowControl"). The zero
// value is Continue, matching spec.md's stated default.
type Signal struct {
	kind  Kind
	query tag.Query
	dur   time.Duration
	err   error
}

// NewContinue builds a Continue signal.
func NewContinue() Signal { return Signal{kind: Continue} }

// NewSkip builds a Skip signal.
func NewSkip() Signal { return Signal{kind: Skip} }

// NewWait builds a Wait(query, d) signal.
func NewWait(q tag.Query, d time.Duration) Signal {
	return Signal{kind: Wait, query: q, dur: d}
}

// NewHold builds a Hold(query, d) signal.
func NewHold(q tag.Query, d time.Duration) Signal {
	return Signal{kind: Hold, query: q, dur: d}
}

// NewFail builds a Fail(query, err) signal.
func NewFail(q tag.Query, err error) Signal {
	return Signal{kind: Fail, query: q, err: err}
}

// Kind reports which variant the signal is.
func (s Signal) Kind() Kind { return s.kind }

// Err returns the error carried by a Fail signal, or nil otherwise.
func (s Signal) Err() error { return s.err }

// Duration projects the duration of Wait/Hold, zero otherwise.
func (s Signal) Duration() time.Duration {
	switch s.kind {
	case Wait, Hold:
		return s.dur
	default:
		return 0
	}
}

// Query projects the tag.Query of Wait/Hold/Fail, Owner-default otherwise.
func (s Signal) Query() tag.Query {
	switch s.kind {
	case Wait, Hold, Fail:
		return s.query
	default:
		return tag.Owner()
	}
}

// IsFatal reports whether the signal should abort the producing stream
// (only Fail does).
func (s Signal) IsFatal() bool { return s.kind == Fail }

// String renders the signal for trace logging.
func (s Signal) String() string {
	switch s.kind {
	case Continue:
		return "Continue"
	case Skip:
		return "Skip"
	case Wait:
		return "Wait"
	case Hold:
		return "Hold"
	case Fail:
		return "Fail"
	default:
		return "Signal(?)"
	}
}

// IntoFlowControl is implemented by any value a handler may return or an
// extractor may reject with. Go has no implicit per-return-type trait
// derivation the way the original Rust engine does (IntoFlowControl for
// (), Duration, Option<T>, Result<T,E>); the closest idiomatic equivalent is
// this single-method interface plus the explicit helpers below
// (FromOption/FromResult) that play the role of the Option/Result instances.
type IntoFlowControl interface {
	IntoFlowControl() Signal
}

// IntoFlowControl lets a bare Signal satisfy the interface (identity).
func (s Signal) IntoFlowControl() Signal { return s }

// Done is the unit return value: "handler returned, no special signal". It
// is the Go stand-in for Rust's `()` implementing IntoFlowControl → Continue.
type Done struct{}

// IntoFlowControl implements IntoFlowControl for Done.
func (Done) IntoFlowControl() Signal { return NewContinue() }

// After is the Go stand-in for Rust's `Duration` implementing
// IntoFlowControl → Wait(Owner, d): a handler returning a bare duration means
// "defer my own tag by this long".
type After time.Duration

// IntoFlowControl implements IntoFlowControl for After.
func (a After) IntoFlowControl() Signal {
	return NewWait(tag.Owner(), time.Duration(a))
}

// flip swaps Continue<->Skip and Wait<->Hold, preserving Fail, Continue's
// severity-inverse is Skip and vice versa. This is the law spec.md §4.D/§8
// property 7 describes for Result<T,E>'s Err branch.
func flip(s Signal) Signal {
	switch s.kind {
	case Continue:
		return NewSkip()
	case Skip:
		return NewContinue()
	case Wait:
		return NewHold(s.query, s.dur)
	case Hold:
		return NewWait(s.query, s.dur)
	case Fail:
		return s
	default:
		return s
	}
}

// FromOption is the Go stand-in for Option<T>'s IntoFlowControl instance:
// None (present=false) -> Continue; Some(x) -> x.IntoFlowControl().
func FromOption(present bool, value IntoFlowControl) Signal {
	if !present {
		return NewContinue()
	}
	return value.IntoFlowControl()
}

// FromResult is the Go stand-in for Result<T,E>'s IntoFlowControl instance:
// Ok(v) -> v.IntoFlowControl(); Err(e) -> flip(e.IntoFlowControl()). Use this
// when a handler's or extractor's fallible outcome itself needs the flip law
// applied (property 7); for raw `error` values returned by a handler, use
// [FromError] instead, which implements spec.md §7's "handler-returned
// errors" rule (no flip — error.Query decides Hold vs Fail directly).
func FromResult(ok bool, okValue, errValue IntoFlowControl) Signal {
	if ok {
		return okValue.IntoFlowControl()
	}
	return flip(errValue.IntoFlowControl())
}

// FromError implements spec.md §7's handler-returned-error rule: an error
// without a tag.Query becomes Hold(Owner, 0) (deferred retry of the owner
// tag); an error with a Query becomes Fail(query, err). This is the
// conversion applied to a handler's returned `error` (as opposed to a value
// that already implements IntoFlowControl).
func FromError(err error) Signal {
	if err == nil {
		return NewContinue()
	}
	if ce, ok := err.(*corerr.Error); ok && ce.Query != nil {
		return NewFail(*ce.Query, ce)
	}
	return NewHold(tag.Owner(), 0)
}

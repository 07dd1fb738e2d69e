// Package extract implements the extractor framework (spec.md §4.F): the
// declarative argument providers a handler's parameter list is built from.
//
// The original engine expresses this with two traits, FromContextRef
// (non-consuming, repeatable) and FromContext (consuming, must be last),
// plus a blanket rule promoting every FromContextRef into a FromContext.
// Go has no trait-with-generic-impls mechanism and no borrow checker to
// enforce "only the last argument consumes the context", so this package
// models both as plain generic function types (Ref and Consuming) instead
// of interfaces with per-type implementations; [FromRef] is the blanket
// promotion, and "must be last" is a contract documented on pkg/handler's
// composition helpers, not something the type system enforces.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corecontext"
	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerequest"
	"github.com/corvidlabs/corvid/pkg/coresignal"
	"github.com/corvidlabs/corvid/pkg/tag"
)

// Rejection is the failure outcome of an extractor. It is both an error and
// an IntoFlowControl, so a failed extraction short-circuits the handler and
// produces a signal directly, without the handler's code ever running.
type Rejection interface {
	error
	coresignal.IntoFlowControl
}

type rejection struct {
	err error
	sig coresignal.Signal
}

func (r *rejection) Error() string                      { return r.err.Error() }
func (r *rejection) IntoFlowControl() coresignal.Signal { return r.sig }
func (r *rejection) Unwrap() error                      { return r.err }

// Reject builds a Rejection that defers the owner tag (Hold(Owner, 0)),
// matching the default for an unscoped error (spec.md §7).
func Reject(err error) Rejection {
	return &rejection{err: err, sig: coresignal.NewHold(tag.Owner(), 0)}
}

// RejectWithQuery builds a Rejection that aborts the tags matched by q.
func RejectWithQuery(err error, q tag.Query) Rejection {
	return &rejection{err: err, sig: coresignal.NewFail(q, err)}
}

// Ref is a non-consuming extractor (spec.md's FromContextRef): it may be
// called many times per invocation and only borrows the Context.
type Ref[C corebackend.Client, S any, T any] func(ctx context.Context, cx *corecontext.Context[C], state *S) (T, Rejection)

// Consuming is a consuming extractor (spec.md's FromContext): at most one
// per handler, and it must be the final argument, since it typically calls
// cx.Resolve to read the response body.
type Consuming[C corebackend.Client, S any, T any] func(ctx context.Context, cx *corecontext.Context[C], state *S) (T, Rejection)

// FromRef promotes a Ref into a Consuming, the Go stand-in for the blanket
// "every FromContextRef implements FromContext" rule: any non-consuming
// extractor can be used wherever a consuming one is expected.
func FromRef[C corebackend.Client, S any, T any](ref Ref[C, S, T]) Consuming[C, S, T] {
	return Consuming[C, S, T](ref)
}

// Option is the Go stand-in for the provided Option<T> extractor instance:
// it never fails, capturing presence/absence of the underlying extractor's
// outcome instead.
type Option[T any] struct {
	Present bool
	Value   T
}

// OptionOf wraps ref so a rejection becomes Option{Present: false} instead
// of short-circuiting the handler.
func OptionOf[C corebackend.Client, S any, T any](ref Ref[C, S, T]) Ref[C, S, Option[T]] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) (Option[T], Rejection) {
		v, rej := ref(ctx, cx, state)
		if rej != nil {
			return Option[T]{}, nil
		}
		return Option[T]{Present: true, Value: v}, nil
	}
}

// Result is the Go stand-in for the provided Result<T, Rej> extractor
// instance: it never fails, capturing the underlying extractor's outcome
// (success value or rejection) for the handler to inspect.
type Result[T any] struct {
	Value T
	Err   Rejection
}

// ResultOf wraps ref so a rejection is captured in Result.Err instead of
// short-circuiting the handler.
func ResultOf[C corebackend.Client, S any, T any](ref Ref[C, S, T]) Ref[C, S, Result[T]] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) (Result[T], Rejection) {
		v, rej := ref(ctx, cx, state)
		return Result[T]{Value: v, Err: rej}, nil
	}
}

// ClientOf extracts a clone of the context's backend client.
func ClientOf[C corebackend.Client, S any]() Ref[C, S, C] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (C, Rejection) {
		return cx.Client(), nil
	}
}

// URI extracts the request's URI.
func URI[C corebackend.Client, S any]() Ref[C, S, string] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (string, Rejection) {
		return cx.Request().URI, nil
	}
}

// TagOf extracts the request's tag.
func TagOf[C corebackend.Client, S any]() Ref[C, S, tag.Tag] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (tag.Tag, Rejection) {
		return cx.Request().Tag(), nil
	}
}

// DepthOf extracts the request's depth.
func DepthOf[C corebackend.Client, S any]() Ref[C, S, corerequest.Depth] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (corerequest.Depth, Rejection) {
		return cx.Request().Depth(), nil
	}
}

// RequestQueueOf extracts a Queue prefilled with the request's tag/depth.
func RequestQueueOf[C corebackend.Client, S any]() Ref[C, S, *corerequest.Queue] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (*corerequest.Queue, Rejection) {
		return cx.RequestQueue(), nil
	}
}

// Data extracts the registry's typed dataset handle for T.
func Data[T any, C corebackend.Client, S any]() Ref[C, S, coredataset.Dataset[T]] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (coredataset.Dataset[T], Rejection) {
		return corecontext.Dataset[T, C](cx), nil
	}
}

// DataStream is the pull side of a dataset, handed to a handler that wants
// to drain items rather than hold the whole Dataset[T] interface.
type DataStream[T any] struct{ ds coredataset.Dataset[T] }

// Next reads the next item, if any.
func (s DataStream[T]) Next(ctx context.Context) (T, bool, error) { return s.ds.Read(ctx) }

// DataSink is the push side of a dataset.
type DataSink[T any] struct{ ds coredataset.Dataset[T] }

// Send writes item to the underlying dataset.
func (s DataSink[T]) Send(ctx context.Context, item T) error { return s.ds.Write(ctx, item) }

// Stream extracts a DataStream[T] over the registry's dataset for T.
func Stream[T any, C corebackend.Client, S any]() Ref[C, S, DataStream[T]] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (DataStream[T], Rejection) {
		return DataStream[T]{ds: corecontext.Dataset[T, C](cx)}, nil
	}
}

// Sink extracts a DataSink[T] over the registry's dataset for T.
func Sink[T any, C corebackend.Client, S any]() Ref[C, S, DataSink[T]] {
	return func(_ context.Context, cx *corecontext.Context[C], _ *S) (DataSink[T], Rejection) {
		return DataSink[T]{ds: corecontext.Dataset[T, C](cx)}, nil
	}
}

// Body is a consuming extractor returning the full response body.
func Body[C corebackend.Client, S any]() Consuming[C, S, []byte] {
	return func(ctx context.Context, cx *corecontext.Context[C], _ *S) ([]byte, Rejection) {
		resp, err := cx.Resolve(ctx)
		if err != nil {
			return nil, Reject(err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, Reject(err)
		}
		return data, nil
	}
}

// Text is a consuming extractor returning the response body as UTF-8 text.
func Text[C corebackend.Client, S any]() Consuming[C, S, string] {
	return func(ctx context.Context, cx *corecontext.Context[C], _ *S) (string, Rejection) {
		resp, err := cx.Resolve(ctx)
		if err != nil {
			return "", Reject(err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", Reject(err)
		}
		return string(data), nil
	}
}

// Html is a consuming extractor returning the raw response body as a
// string. The original engine's browser-backend client instead returns a
// fully parsed DOM here; the browser backend is out of scope (spec.md §1
// lists the WebDriver pool as an external collaborator), so Html only ever
// produces the HTTP-client behavior.
func Html[C corebackend.Client, S any]() Consuming[C, S, string] {
	return Consuming[C, S, string](Text[C, S]())
}

// Json is a consuming extractor that JSON-decodes the response body into T.
func Json[T any, C corebackend.Client, S any]() Consuming[C, S, T] {
	return func(ctx context.Context, cx *corecontext.Context[C], _ *S) (T, Rejection) {
		var zero T
		resp, err := cx.Resolve(ctx)
		if err != nil {
			return zero, Reject(err)
		}
		defer resp.Body.Close()
		var v T
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			return zero, Reject(fmt.Errorf("decode json body: %w", err))
		}
		return v, nil
	}
}

// State extracts a T derived from the shared state S. fromRef plays the
// role of the original engine's FromRef<S> trait: Go cannot express "T
// implements a trait parameterized by S" without S being fixed ahead of
// time, so the conversion is passed explicitly rather than resolved by the
// type system.
func State[T any, C corebackend.Client, S any](fromRef func(*S) T) Ref[C, S, T] {
	return func(_ context.Context, _ *corecontext.Context[C], state *S) (T, Rejection) {
		return fromRef(state), nil
	}
}

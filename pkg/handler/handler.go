// Package handler implements handler composition, the tag-keyed Router, and
// layering (spec.md §4.G). The original engine type-erases handlers behind
// a trait-object Service; Go has no variadic generics to express "a
// function of N extractor-derived arguments" once, so each arity is
// hand-written (Handler0..Handler5) and all of them compile down to the
// same type-erased Endpoint function value, which already is the cloneable
// service spec.md calls Route.
package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corecontext"
	"github.com/corvidlabs/corvid/pkg/coresignal"
	"github.com/corvidlabs/corvid/pkg/extract"
	"github.com/corvidlabs/corvid/pkg/tag"
)

// Endpoint is the type-erased, cloneable service spec.md calls Route: a
// function from a Context to a FlowControl signal. Go function values are
// already reference-typed, so no separate boxing step is needed.
type Endpoint[C corebackend.Client, S any] func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal

// Layer wraps an Endpoint to produce another, the unit of composition
// pkg/middleware builds on.
type Layer[C corebackend.Client, S any] func(next Endpoint[C, S]) Endpoint[C, S]

// MapResponse builds a Layer that post-processes an endpoint's signal.
func MapResponse[C corebackend.Client, S any](f func(coresignal.Signal) coresignal.Signal) Layer[C, S] {
	return func(next Endpoint[C, S]) Endpoint[C, S] {
		return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
			return f(next(ctx, cx, state))
		}
	}
}

// Handler0 composes a zero-argument handler.
func Handler0[C corebackend.Client, S any, R coresignal.IntoFlowControl](fn func() R) Endpoint[C, S] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
		return fn().IntoFlowControl()
	}
}

// Handler1 composes a handler whose sole argument is consuming (spec.md
// §4.G step 2: the final argument's extractor runs, short-circuiting on
// rejection; the user function is then invoked).
func Handler1[C corebackend.Client, S any, A any, R coresignal.IntoFlowControl](
	a1 extract.Consuming[C, S, A],
	fn func(A) R,
) Endpoint[C, S] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
		v1, rej := a1(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		return fn(v1).IntoFlowControl()
	}
}

// Handler2 composes a handler with one non-consuming argument followed by
// one consuming argument, in that order (spec.md §8 property 9).
func Handler2[C corebackend.Client, S any, A, B any, R coresignal.IntoFlowControl](
	a1 extract.Ref[C, S, A],
	a2 extract.Consuming[C, S, B],
	fn func(A, B) R,
) Endpoint[C, S] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
		v1, rej := a1(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v2, rej := a2(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		return fn(v1, v2).IntoFlowControl()
	}
}

// Handler3 composes a handler with two non-consuming arguments followed by
// one consuming argument (e.g. spec.md E5: Uri, Tag, Text).
func Handler3[C corebackend.Client, S any, A, B, D any, R coresignal.IntoFlowControl](
	a1 extract.Ref[C, S, A],
	a2 extract.Ref[C, S, B],
	a3 extract.Consuming[C, S, D],
	fn func(A, B, D) R,
) Endpoint[C, S] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
		v1, rej := a1(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v2, rej := a2(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v3, rej := a3(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		return fn(v1, v2, v3).IntoFlowControl()
	}
}

// Handler4 composes a handler with three non-consuming arguments followed
// by one consuming argument.
func Handler4[C corebackend.Client, S any, A, B, D, E any, R coresignal.IntoFlowControl](
	a1 extract.Ref[C, S, A],
	a2 extract.Ref[C, S, B],
	a3 extract.Ref[C, S, D],
	a4 extract.Consuming[C, S, E],
	fn func(A, B, D, E) R,
) Endpoint[C, S] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
		v1, rej := a1(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v2, rej := a2(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v3, rej := a3(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v4, rej := a4(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		return fn(v1, v2, v3, v4).IntoFlowControl()
	}
}

// Handler5 composes a handler with four non-consuming arguments followed by
// one consuming argument.
func Handler5[C corebackend.Client, S any, A, B, D, E, F any, R coresignal.IntoFlowControl](
	a1 extract.Ref[C, S, A],
	a2 extract.Ref[C, S, B],
	a3 extract.Ref[C, S, D],
	a4 extract.Ref[C, S, E],
	a5 extract.Consuming[C, S, F],
	fn func(A, B, D, E, F) R,
) Endpoint[C, S] {
	return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
		v1, rej := a1(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v2, rej := a2(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v3, rej := a3(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v4, rej := a4(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		v5, rej := a5(ctx, cx, state)
		if rej != nil {
			return rej.IntoFlowControl()
		}
		return fn(v1, v2, v3, v4, v5).IntoFlowControl()
	}
}

// Router dispatches a Context to an Endpoint keyed by the request's tag,
// falling back to a default endpoint on miss (spec.md §4.G).
type Router[C corebackend.Client, S any] struct {
	mu          sync.Mutex
	routes      map[any]Endpoint[C, S]
	tags        map[any]tag.Tag
	fallback    Endpoint[C, S]
	fallbackSet bool
}

// NewRouter builds an empty Router whose fallback endpoint returns Continue
// until overridden.
func NewRouter[C corebackend.Client, S any]() *Router[C, S] {
	return &Router[C, S]{
		routes: make(map[any]Endpoint[C, S]),
		tags:   make(map[any]tag.Tag),
		fallback: func(context.Context, *corecontext.Context[C], *S) coresignal.Signal {
			return coresignal.NewContinue()
		},
	}
}

// RegisteredTags returns every non-Fallback tag with a registered route, in
// no particular order. Used by pkg/diag to render routing topology.
func (r *Router[C, S]) RegisteredTags() []tag.Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tag.Tag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, t)
	}
	return out
}

// HasFallback reports whether a fallback endpoint was explicitly set.
func (r *Router[C, S]) HasFallback() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallbackSet
}

// Route registers ep under t. Registering under tag.Fallback is redirected
// to the fallback slot (see Fallback). Registering a second endpoint under
// an already-registered non-Fallback tag panics: this is a programmer
// error the original engine also treats as fatal (spec.md §8 property 8).
func (r *Router[C, S]) Route(t tag.Tag, ep Endpoint[C, S]) *Router[C, S] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.IsFallback() {
		r.setFallbackLocked(ep)
		return r
	}
	key := t.MapKey()
	if _, exists := r.routes[key]; exists {
		panic(fmt.Sprintf("handler: tag %v already registered", t))
	}
	r.routes[key] = ep
	r.tags[key] = t
	return r
}

// Fallback sets the router's fallback endpoint. Calling it twice panics.
func (r *Router[C, S]) Fallback(ep Endpoint[C, S]) *Router[C, S] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setFallbackLocked(ep)
	return r
}

func (r *Router[C, S]) setFallbackLocked(ep Endpoint[C, S]) {
	if r.fallbackSet {
		panic("handler: fallback endpoint already set")
	}
	r.fallback = ep
	r.fallbackSet = true
}

// Merge unions r's routes and fallback with other's. Any tag present in
// both, or a fallback present in both, panics.
func (r *Router[C, S]) Merge(other *Router[C, S]) *Router[C, S] {
	r.mu.Lock()
	defer r.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()
	for key, ep := range other.routes {
		if _, exists := r.routes[key]; exists {
			panic("handler: tag conflict during router merge")
		}
		r.routes[key] = ep
		r.tags[key] = other.tags[key]
	}
	if other.fallbackSet {
		if r.fallbackSet {
			panic("handler: fallback conflict during router merge")
		}
		r.fallback = other.fallback
		r.fallbackSet = true
	}
	return r
}

// Layer applies l to every registered endpoint, including the fallback.
func (r *Router[C, S]) Layer(l Layer[C, S]) *Router[C, S] {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, ep := range r.routes {
		r.routes[key] = l(ep)
	}
	r.fallback = l(r.fallback)
	return r
}

// WithState binds the router to a concrete state value, returning a
// BoundRouter the engine can dispatch directly against.
func (r *Router[C, S]) WithState(state S) *BoundRouter[C, S] {
	return &BoundRouter[C, S]{router: r, state: state}
}

// Dispatch looks up cx's request's tag and invokes the matching endpoint,
// or the fallback on miss.
func (r *Router[C, S]) Dispatch(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
	r.mu.Lock()
	ep, ok := r.routes[cx.Request().Tag().MapKey()]
	fallback := r.fallback
	r.mu.Unlock()
	if !ok {
		return fallback(ctx, cx, state)
	}
	return ep(ctx, cx, state)
}

// BoundRouter is a Router bound to a concrete state value (spec.md §4.G
// with_state). State is copied per invocation, mirroring "state is cloned
// per invocation" for cheaply-cloneable (e.g. pointer/Arc-shaped) state.
type BoundRouter[C corebackend.Client, S any] struct {
	router *Router[C, S]
	state  S
}

// Dispatch invokes the bound router against a fresh copy of its state.
func (b *BoundRouter[C, S]) Dispatch(ctx context.Context, cx *corecontext.Context[C]) coresignal.Signal {
	state := b.state
	return b.router.Dispatch(ctx, cx, &state)
}

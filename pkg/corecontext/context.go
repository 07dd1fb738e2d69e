// Package corecontext implements Context<C> (spec.md §3): the short-lived,
// per-invocation bundle of one request, one backend client, and a shared
// dataset registry handle.
package corecontext

import (
	"context"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerequest"
)

// Context bundles one Request, one backend client C, and a registry handle
// for a single handler invocation. It is created per invocation and must
// not outlive it.
type Context[C corebackend.Client] struct {
	request  *corerequest.Request
	client   C
	registry *coredataset.Registry
}

// New builds a Context for one invocation.
func New[C corebackend.Client](req *corerequest.Request, client C, registry *coredataset.Registry) *Context[C] {
	return &Context[C]{request: req, client: client, registry: registry}
}

// Request borrows the request carried by the context (for extensions, URI,
// tag inspection) without consuming it.
func (cx *Context[C]) Request() *corerequest.Request { return cx.request }

// Client returns a clone of the context's backend client.
func (cx *Context[C]) Client() C {
	return cx.client.Clone().(C)
}

// Registry returns the shared dataset registry handle.
func (cx *Context[C]) Registry() *coredataset.Registry { return cx.registry }

// RequestQueue returns a Queue over the request dataset, prefilled with this
// invocation's tag and depth as defaults (spec.md §3 Context.request_queue).
func (cx *Context[C]) RequestQueue() *corerequest.Queue {
	ds := coredataset.Get[*corerequest.Request](cx.registry)
	t := cx.request.Tag()
	d := cx.request.Depth()
	return corerequest.NewQueue(ds, d, &t, &d)
}

// Resolve consumes cx and fetches the response for its request by calling
// client.Resolve (spec.md §3 Context.resolve). After Resolve, cx must not be
// used again.
func (cx *Context[C]) Resolve(ctx context.Context) (*corebackend.Response, error) {
	return cx.client.Resolve(ctx, cx.request)
}

// Dataset returns the typed dataset handle for T from cx's registry
// (spec.md §3 Context.dataset<T>). It is a free function, not a method,
// since Go methods cannot introduce additional type parameters beyond the
// receiver's.
func Dataset[T any, C corebackend.Client](cx *Context[C]) coredataset.Dataset[T] {
	return coredataset.Get[T](cx.registry)
}

// Package corebackend defines the retrieval-backend abstraction the engine
// drives against (spec.md §4.E): a Backend hands out Clients, a Client
// resolves one Request into a Response.
package corebackend

import (
	"context"
	"io"
	"net/http"

	"github.com/corvidlabs/corvid/pkg/corerequest"
)

// Response is an HTTP response with a streamable body, treated opaquely by
// the engine (spec.md §3).
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// Client is a cloneable handle that resolves a single request to a
// response. Implementations may be shared (an HTTP connection pool) or
// unique (a browser session); the engine never inspects which.
type Client interface {
	Resolve(ctx context.Context, req *corerequest.Request) (*Response, error)
	Clone() Client
}

// Backend is a factory for clients. The engine acquires exactly one client
// per invocation and hands it to the Context.
type Backend interface {
	Client(ctx context.Context) (Client, error)
}

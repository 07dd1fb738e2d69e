// Package middleware implements the Trace and Metric cross-cutting layers
// (spec.md §4.I), wrapping Backend, Client, and handler.Endpoint.
package middleware

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corecontext"
	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerequest"
	"github.com/corvidlabs/corvid/pkg/coresignal"
	"github.com/corvidlabs/corvid/pkg/handler"
)

// TraceBackend wraps a Backend, logging client acquisition.
type TraceBackend struct {
	inner  corebackend.Backend
	logger *log.Logger
}

// NewTraceBackend wraps inner with structured acquisition logging.
func NewTraceBackend(inner corebackend.Backend, logger *log.Logger) *TraceBackend {
	return &TraceBackend{inner: inner, logger: logger}
}

// Client acquires a client from the wrapped backend and logs success.
func (b *TraceBackend) Client(ctx context.Context) (corebackend.Client, error) {
	c, err := b.inner.Client(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Info("initialized new client")
	return &traceClient{inner: c, logger: b.logger}, nil
}

type traceClient struct {
	inner  corebackend.Client
	logger *log.Logger
}

func (c *traceClient) Resolve(ctx context.Context, req *corerequest.Request) (*corebackend.Response, error) {
	c.logger.Info("request body", "method", req.Method, "uri", req.URI, "body_bytes", len(req.Body))
	resp, err := c.inner.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("response body", "status", resp.Status)
	return resp, nil
}

func (c *traceClient) Clone() corebackend.Client {
	return &traceClient{inner: c.inner.Clone(), logger: c.logger}
}

// TraceWorker builds a Layer logging handler invocation boundaries, with
// the owner tag, depth, and current request queue length as structured
// fields (spec.md §4.I).
func TraceWorker[C corebackend.Client, S any](logger *log.Logger) handler.Layer[C, S] {
	return func(next handler.Endpoint[C, S]) handler.Endpoint[C, S] {
		return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
			req := cx.Request()
			qlen, _ := coredataset.Get[*corerequest.Request](cx.Registry()).Len(ctx)
			logger.Info("handler requested", "tag", req.Tag().String(), "depth", req.Depth(), "queue_len", qlen)
			sig := next(ctx, cx, state)
			qlen, _ = coredataset.Get[*corerequest.Request](cx.Registry()).Len(ctx)
			logger.Info("handler responded", "tag", req.Tag().String(), "depth", req.Depth(), "queue_len", qlen, "signal", sig.String())
			return sig
		}
	}
}

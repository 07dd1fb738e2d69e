// Package backendhttp implements the HTTP retrieval backend (spec.md §6):
// a Backend/Client pair built on net/http, using internal/httputil's retry
// helper for transient failures.
package backendhttp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/corvidlabs/corvid/internal/httputil"
	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corerequest"
	"github.com/corvidlabs/corvid/pkg/corerr"
)

// Backend hands out shared Client handles backed by one connection-pooled
// *http.Client, with retry parameters applied per request.
type Backend struct {
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	cache         *httputil.NamespacedCache
}

// Option configures a Backend.
type Option func(*Backend)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) { b.httpClient = c }
}

// WithRetry overrides the retry attempt count and initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(b *Backend) { b.retryAttempts = attempts; b.retryDelay = delay }
}

// WithCache enables an on-disk response cache scoped under "backendhttp/":
// GET responses are replayed from disk within ttl instead of re-fetched,
// which matters for a crawl that revisits the same URI across passes.
func WithCache(cache *httputil.Cache) Option {
	return func(b *Backend) { b.cache = cache.Namespace("backendhttp/") }
}

// cachedResponse is the on-disk, JSON-encodable shape of a cached response.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// New builds a Backend with sensible defaults: a 30s-timeout client and up
// to 3 retry attempts starting at a 1s delay.
func New(opts ...Option) *Backend {
	b := &Backend{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		retryAttempts: 3,
		retryDelay:    time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ corebackend.Backend = (*Backend)(nil)

// Client acquires a Client sharing this backend's *http.Client and retry
// policy. Acquisition never fails for this backend.
func (b *Backend) Client(context.Context) (corebackend.Client, error) {
	return &Client{backend: b}, nil
}

// Client is a cloneable handle resolving requests through its backend's
// shared *http.Client.
type Client struct {
	backend *Backend
}

var _ corebackend.Client = (*Client)(nil)

// Clone returns a handle sharing the same backend (and thus the same
// underlying connection pool).
func (c *Client) Clone() corebackend.Client { return &Client{backend: c.backend} }

// Resolve sends req and returns its response, retrying transient failures
// (network errors and 5xx responses) per the backend's retry policy.
func (c *Client) Resolve(ctx context.Context, req *corerequest.Request) (*corebackend.Response, error) {
	cacheable := c.backend.cache != nil && req.Method == http.MethodGet
	if cacheable {
		var cached cachedResponse
		if hit, err := c.backend.cache.Get(req.URI, &cached); hit && err == nil {
			return &corebackend.Response{
				Status: cached.Status,
				Header: cached.Header,
				Body:   io.NopCloser(bytes.NewReader(cached.Body)),
			}, nil
		}
	}

	var resp *corebackend.Response
	var rawBody []byte
	err := httputil.Retry(ctx, c.backend.retryAttempts, c.backend.retryDelay, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URI, bytes.NewReader(req.Body))
		if err != nil {
			return corerr.Wrap(corerr.KindHTTP, err, "build request for %s", req.URI)
		}
		if req.Header != nil {
			httpReq.Header = req.Header.Clone()
		}

		httpResp, err := c.backend.httpClient.Do(httpReq)
		if err != nil {
			return httputil.Retryable(corerr.Wrap(corerr.KindHTTP, err, "resolve %s", req.URI))
		}
		if httpResp.StatusCode >= 500 {
			httpResp.Body.Close()
			return httputil.Retryable(corerr.New(corerr.KindHTTP, "server error %d for %s", httpResp.StatusCode, req.URI))
		}

		body := httpResp.Body
		if cacheable {
			rawBody, err = io.ReadAll(httpResp.Body)
			httpResp.Body.Close()
			if err != nil {
				return corerr.Wrap(corerr.KindHTTP, err, "read body for %s", req.URI)
			}
			body = io.NopCloser(bytes.NewReader(rawBody))
		}

		resp = &corebackend.Response{
			Status: httpResp.StatusCode,
			Header: httpResp.Header,
			Body:   body,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cacheable {
		_ = c.backend.cache.Set(req.URI, cachedResponse{Status: resp.Status, Header: resp.Header, Body: rawBody})
	}
	return resp, nil
}

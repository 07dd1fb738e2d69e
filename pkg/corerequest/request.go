// Package corerequest implements the Request type and its tag/depth
// extensions (spec.md §3, §4.B).
package corerequest

import (
	"math"
	"net/http"

	"github.com/corvidlabs/corvid/pkg/tag"
)

// Depth is the recursion depth extension. The zero value is never used
// directly: a Request with no depth extension reports 1 via [Request.Depth].
type Depth uint32

// MaxDepth is the largest representable depth. SaturatingAdd1 never exceeds
// it (spec.md §8 property 5).
const MaxDepth Depth = math.MaxUint32

// SaturatingAdd1 returns d+1, or MaxDepth if d is already MaxDepth.
func (d Depth) SaturatingAdd1() Depth {
	if d == MaxDepth {
		return MaxDepth
	}
	return d + 1
}

// Request is an HTTP request plus the engine's tag and depth extensions.
// The extensions are attached as typed side-channels, not headers, and
// default to Fallback and 1 respectively when absent.
type Request struct {
	Method string
	URI    string
	Header http.Header
	Body   []byte

	tag   *tag.Tag
	depth *Depth
}

// NewGet builds a GET request with an empty body for uri.
func NewGet(uri string) *Request {
	return &Request{Method: http.MethodGet, URI: uri}
}

// New builds a request with the given method, uri, and body.
func New(method, uri string, body []byte) *Request {
	return &Request{Method: method, URI: uri, Body: body}
}

// Tag returns the request's tag extension, defaulting to tag.Fallback.
func (r *Request) Tag() tag.Tag {
	if r.tag == nil {
		return tag.Fallback
	}
	return *r.tag
}

// HasTag reports whether a tag extension has been attached.
func (r *Request) HasTag() bool { return r.tag != nil }

// WithTag attaches t as the request's tag extension, overwriting any
// existing one, and returns r for chaining.
func (r *Request) WithTag(t tag.Tag) *Request {
	r.tag = &t
	return r
}

// Depth returns the request's depth extension, defaulting to 1.
func (r *Request) Depth() Depth {
	if r.depth == nil {
		return 1
	}
	return *r.depth
}

// HasDepth reports whether a depth extension has been attached.
func (r *Request) HasDepth() bool { return r.depth != nil }

// WithDepth attaches d as the request's depth extension, overwriting any
// existing one, and returns r for chaining.
func (r *Request) WithDepth(d Depth) *Request {
	r.depth = &d
	return r
}

// Clone returns a shallow copy of r; Header and Body are not deep-copied,
// matching the cheap-clone contract the engine relies on for requests
// passed through extractors.
func (r *Request) Clone() *Request {
	clone := *r
	return &clone
}

package corerequest

import (
	"context"
	"net/url"

	"github.com/corvidlabs/corvid/pkg/corerr"
	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/tag"
)

// Queue is a RequestQueue (spec.md §3, §4.C): a cloneable handle wrapping
// the request dataset plus an owner depth and two optional defaults (tag,
// depth) applied when enqueueing new work.
type Queue struct {
	dataset      coredataset.Dataset[*Request]
	ownerDepth   Depth
	defaultTag   *tag.Tag
	defaultDepth *Depth
}

// NewQueue builds a Queue over dataset, scoped to ownerDepth (the depth of
// the request whose handler owns this queue), with optional defaults.
func NewQueue(dataset coredataset.Dataset[*Request], ownerDepth Depth, defaultTag *tag.Tag, defaultDepth *Depth) *Queue {
	return &Queue{dataset: dataset, ownerDepth: ownerDepth, defaultTag: defaultTag, defaultDepth: defaultDepth}
}

// toRequest converts source (a *Request or a URL string) into a *Request.
// Malformed URL strings fail with a Context-kind error (spec.md §4.C).
func toRequest(source any) (*Request, error) {
	switch v := source.(type) {
	case *Request:
		return v, nil
	case Request:
		return &v, nil
	case string:
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, corerr.New(corerr.KindContext, "malformed URL %q", v)
		}
		return NewGet(v), nil
	default:
		return nil, corerr.New(corerr.KindContext, "unsupported request source type %T", source)
	}
}

// Append implements spec.md §4.C append(source): attach default tag/depth
// only where the request doesn't already carry one, then write.
func (q *Queue) Append(ctx context.Context, source any) error {
	req, err := toRequest(source)
	if err != nil {
		return err
	}
	if q.defaultTag != nil && !req.HasTag() {
		req.WithTag(*q.defaultTag)
	}
	if q.defaultDepth != nil && !req.HasDepth() {
		req.WithDepth(*q.defaultDepth)
	}
	return q.dataset.Write(ctx, req)
}

// Branch implements spec.md §4.C branch(source): like Append, but the depth
// default (applied only if absent) is always ownerDepth+1, saturating,
// rather than the queue's defaultDepth.
func (q *Queue) Branch(ctx context.Context, source any) error {
	req, err := toRequest(source)
	if err != nil {
		return err
	}
	if q.defaultTag != nil && !req.HasTag() {
		req.WithTag(*q.defaultTag)
	}
	if !req.HasDepth() {
		req.WithDepth(q.ownerDepth.SaturatingAdd1())
	}
	return q.dataset.Write(ctx, req)
}

// AppendWithTag implements spec.md §4.C append_with_tag(tag, source):
// unconditionally overwrites the request's tag; depth defaulting behaves
// exactly as in Append (spec.md §9 design note).
func (q *Queue) AppendWithTag(ctx context.Context, t tag.Tag, source any) error {
	req, err := toRequest(source)
	if err != nil {
		return err
	}
	req.WithTag(t)
	if q.defaultDepth != nil && !req.HasDepth() {
		req.WithDepth(*q.defaultDepth)
	}
	return q.dataset.Write(ctx, req)
}

// BranchWithTag implements spec.md §4.C branch_with_tag(tag, source):
// unconditionally overwrites both the tag and the depth (ownerDepth+1,
// saturating), regardless of what the source already carried.
func (q *Queue) BranchWithTag(ctx context.Context, t tag.Tag, source any) error {
	req, err := toRequest(source)
	if err != nil {
		return err
	}
	req.WithTag(t)
	req.WithDepth(q.ownerDepth.SaturatingAdd1())
	return q.dataset.Write(ctx, req)
}

package handler

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corecontext"
	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerequest"
	"github.com/corvidlabs/corvid/pkg/coresignal"
	"github.com/corvidlabs/corvid/pkg/extract"
	"github.com/corvidlabs/corvid/pkg/tag"
)

type fakeClient struct{ body string }

func (c fakeClient) Resolve(_ context.Context, _ *corerequest.Request) (*corebackend.Response, error) {
	return &corebackend.Response{Status: 200, Body: io.NopCloser(strings.NewReader(c.body))}, nil
}

func (c fakeClient) Clone() corebackend.Client { return c }

type state struct{}

func newTestContext(body string, t tag.Tag) *corecontext.Context[fakeClient] {
	req := corerequest.NewGet("https://example.test/").WithTag(t)
	reg := coredataset.NewRegistry()
	return corecontext.New[fakeClient](req, fakeClient{body: body}, reg)
}

func TestRouterSecondInsertUnderSameTagPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate tag registration")
		}
	}()
	r := NewRouter[fakeClient, state]()
	ep := Handler0[fakeClient, state](func() coresignal.Signal { return coresignal.NewContinue() })
	r.Route(tag.Sequence("a"), ep)
	r.Route(tag.Sequence("a"), ep)
}

func TestRouterRouteFallbackTagSetsFallbackSlot(t *testing.T) {
	r := NewRouter[fakeClient, state]()
	called := false
	r.Route(tag.Fallback, Handler0[fakeClient, state](func() coresignal.Signal {
		called = true
		return coresignal.NewSkip()
	}))

	cx := newTestContext("", tag.Sequence("unregistered"))
	var st state
	got := r.Dispatch(context.Background(), cx, &st)
	if !called {
		t.Fatal("dispatch on an unregistered tag should invoke the fallback endpoint")
	}
	if got.Kind() != coresignal.Skip {
		t.Errorf("expected Skip from fallback, got %v", got)
	}
}

func TestRouterDispatchesRegisteredTag(t *testing.T) {
	r := NewRouter[fakeClient, state]()
	r.Route(tag.Sequence("a"), Handler0[fakeClient, state](func() coresignal.Signal {
		return coresignal.NewSkip()
	}))
	r.Fallback(Handler0[fakeClient, state](func() coresignal.Signal {
		return coresignal.NewContinue()
	}))

	cx := newTestContext("", tag.Sequence("a"))
	var st state
	got := r.Dispatch(context.Background(), cx, &st)
	if got.Kind() != coresignal.Skip {
		t.Errorf("registered tag should reach its own endpoint, got %v", got)
	}
}

func TestHandler3ExtractorOrderingAndConsumingLast(t *testing.T) {
	var order []string

	uriRef := func(ctx context.Context, cx *corecontext.Context[fakeClient], s *state) (string, extract.Rejection) {
		order = append(order, "uri")
		return extract.URI[fakeClient, state]()(ctx, cx, s)
	}
	tagRef := func(ctx context.Context, cx *corecontext.Context[fakeClient], s *state) (tag.Tag, extract.Rejection) {
		order = append(order, "tag")
		return extract.TagOf[fakeClient, state]()(ctx, cx, s)
	}
	textConsuming := extract.FromRef[fakeClient, state, string](
		func(ctx context.Context, cx *corecontext.Context[fakeClient], s *state) (string, extract.Rejection) {
			order = append(order, "text")
			return extract.Text[fakeClient, state]()(ctx, cx, s)
		},
	)

	var gotURI, gotBody string
	var gotTag tag.Tag
	ep := Handler3[fakeClient, state, string, tag.Tag, string](
		uriRef, tagRef, textConsuming,
		func(uri string, tg tag.Tag, body string) coresignal.Signal {
			gotURI, gotTag, gotBody = uri, tg, body
			return coresignal.NewContinue()
		},
	)

	cx := newTestContext("hello", tag.Sequence("x"))
	var st state
	got := ep(context.Background(), cx, &st)

	if got.Kind() != coresignal.Continue {
		t.Fatalf("expected Continue, got %v", got)
	}
	if len(order) != 3 || order[0] != "uri" || order[1] != "tag" || order[2] != "text" {
		t.Fatalf("extractors must run in declaration order with the consuming one last, got %v", order)
	}
	if gotURI != "https://example.test/" || !gotTag.Equal(tag.Sequence("x")) || gotBody != "hello" {
		t.Fatalf("unexpected extracted values: uri=%q tag=%v body=%q", gotURI, gotTag, gotBody)
	}
}

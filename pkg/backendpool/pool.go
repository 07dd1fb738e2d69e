// Package backendpool implements a multi-replica Backend decorator that
// shards client acquisition across N upstream backends using rendezvous
// hashing keyed by the request's owner tag, so requests under the same tag
// consistently land on the same upstream client (connection affinity).
package backendpool

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corerequest"
	"github.com/corvidlabs/corvid/pkg/corerr"
)

// Pool shards acquisition across a fixed set of named upstream backends.
type Pool struct {
	upstreams map[string]corebackend.Backend
	rendez    *rendezvous.Rendezvous

	mu      sync.Mutex
	clients map[string]corebackend.Client
}

// New builds a Pool over upstreams, keyed by node name. Node names are
// used only for rendezvous hashing; callers choose them.
func New(upstreams map[string]corebackend.Backend) *Pool {
	nodes := make([]string, 0, len(upstreams))
	for name := range upstreams {
		nodes = append(nodes, name)
	}
	return &Pool{
		upstreams: upstreams,
		rendez:    rendezvous.New(nodes, xxhash.Sum64String),
		clients:   make(map[string]corebackend.Client),
	}
}

var _ corebackend.Backend = (*Pool)(nil)

// Client returns a handle that resolves sharding lazily per request, since
// the owner tag isn't known until Resolve is called.
func (p *Pool) Client(context.Context) (corebackend.Client, error) {
	if len(p.upstreams) == 0 {
		return nil, corerr.New(corerr.KindContext, "backendpool: no upstreams configured")
	}
	return &poolClient{pool: p}, nil
}

// clientFor lazily acquires and caches the client for node, so repeated
// lookups of the same shard reuse one upstream client (spec.md's
// connection-affinity concern).
func (p *Pool) clientFor(ctx context.Context, node string) (corebackend.Client, error) {
	p.mu.Lock()
	if c, ok := p.clients[node]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	upstream, ok := p.upstreams[node]
	if !ok {
		return nil, corerr.New(corerr.KindContext, "backendpool: unknown shard %q", node)
	}
	c, err := upstream.Client(ctx)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindHTTP, err, "acquire client for shard %q", node)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.clients[node]; ok {
		return existing, nil
	}
	p.clients[node] = c
	return c, nil
}

// poolClient defers shard selection to Resolve, where the request's owner
// tag is finally available.
type poolClient struct {
	pool *Pool
}

var _ corebackend.Client = (*poolClient)(nil)

func (c *poolClient) Resolve(ctx context.Context, req *corerequest.Request) (*corebackend.Response, error) {
	node := c.pool.rendez.Lookup(req.Tag().String())
	upstream, err := c.pool.clientFor(ctx, node)
	if err != nil {
		return nil, err
	}
	return upstream.Resolve(ctx, req)
}

func (c *poolClient) Clone() corebackend.Client {
	return &poolClient{pool: c.pool}
}

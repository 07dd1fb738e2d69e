// Package engine implements the bounded-concurrency driver loop (spec.md
// §4.H): it drains seed requests, dispatches each through a Router, applies
// the returned FlowControl signal, and honors deferrals, graceful
// shutdown, and fatal aborts.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"context"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corecontext"
	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerequest"
	"github.com/corvidlabs/corvid/pkg/coresignal"
	"github.com/corvidlabs/corvid/pkg/handler"
	"github.com/corvidlabs/corvid/pkg/tag"
)

// DeferralSlack is the wall-clock tolerance applied when gating dispatch on
// a tag's deferral deadline (spec.md §4.H's open question: the reference
// engine stores deadlines but never wires a consumer; this implementation
// does, and accepts a deadline as satisfied once it is within this slack,
// rather than busy-waiting to the exact nanosecond).
const DeferralSlack = 10 * time.Millisecond

// DefaultConcurrency is the concurrency limit new engines start with
// (spec.md §4.H: "AtomicUsize concurrency limit (minimum 1, default 8)").
const DefaultConcurrency = 8

// Engine is the driver (spec.md's Runner/Client). S is the user's shared
// state type threaded through the router. The backend client type is fixed
// to the corebackend.Client interface: the interface itself is already the
// erasure boundary the original engine's generic Client type parameter
// exists to provide.
type Engine[S any] struct {
	backend  corebackend.Backend
	router   *handler.BoundRouter[corebackend.Client, S]
	registry *coredataset.Registry

	seedsMu sync.Mutex
	seeds   []*corerequest.Request

	concurrency atomic.Int64
	inflight    atomic.Int64

	deferrals *deferralMap
	shutdown  ShutdownToken

	abortMu sync.Mutex
	abortFn context.CancelFunc
}

// New builds an Engine over backend and router, bound to the given initial
// state value. The request dataset defaults to an in-memory FIFO queue;
// replace it with [Engine.SetRequestDataset] before Run if needed.
func New[S any](backend corebackend.Backend, router *handler.Router[corebackend.Client, S], state S) *Engine[S] {
	e := &Engine[S]{
		backend:   backend,
		router:    router.WithState(state),
		registry:  coredataset.NewRegistry(),
		deferrals: newDeferralMap(),
		shutdown:  NewShutdownToken(),
	}
	e.concurrency.Store(DefaultConcurrency)
	e.SetRequestDataset(coredataset.NewInMemoryDataset[*corerequest.Request](coredataset.FIFO))
	return e
}

// Registry exposes the engine's dataset registry, so callers can seed
// non-default datasets (via coredataset.Set) before calling Run.
func (e *Engine[S]) Registry() *coredataset.Registry { return e.registry }

// Deferrals exposes the engine's live deferral state for read-only
// inspection (pkg/diag), satisfying diag.Deferrals.
func (e *Engine[S]) Deferrals() *deferralMap { return e.deferrals }

// Shutdown returns the engine's cancellation token. Calling Cancel on it
// (or any copy of it) triggers a graceful shutdown: the producer stream
// stops reading new requests, and in-flight invocations are allowed to
// complete (spec.md §5 "Cancellation").
func (e *Engine[S]) Shutdown() ShutdownToken { return e.shutdown }

// SetConcurrency sets the unordered-buffer width for the next Run call.
// Values below 1 are clamped to 1.
func (e *Engine[S]) SetConcurrency(limit int) {
	if limit < 1 {
		limit = 1
	}
	e.concurrency.Store(int64(limit))
}

// SetRequestDataset replaces the request dataset's storage (spec.md §4.H
// construction note: this does not migrate existing items). It is wrapped
// so the engine can still track outstanding work for stream-drain
// detection regardless of which concrete implementation backs it.
func (e *Engine[S]) SetRequestDataset(ds coredataset.Dataset[*corerequest.Request]) {
	wrapped := coredataset.OnWrite[*corerequest.Request](ds, func(*corerequest.Request) {
		e.inflight.Add(1)
	})
	coredataset.Set[*corerequest.Request](e.registry, wrapped)
}

// WithInitialRequest queues req as a seed, written to the request dataset
// at the start of the next Run.
func (e *Engine[S]) WithInitialRequest(req *corerequest.Request) *Engine[S] {
	e.seedsMu.Lock()
	e.seeds = append(e.seeds, req)
	e.seedsMu.Unlock()
	return e
}

// WithInitialRequests queues reqs as seeds.
func (e *Engine[S]) WithInitialRequests(reqs []*corerequest.Request) *Engine[S] {
	e.seedsMu.Lock()
	e.seeds = append(e.seeds, reqs...)
	e.seedsMu.Unlock()
	return e
}

func (e *Engine[S]) abort() {
	e.abortMu.Lock()
	fn := e.abortFn
	e.abortMu.Unlock()
	if fn != nil {
		fn()
	}
}

// Run drives the engine to completion: it drains seeds into the request
// dataset, then repeatedly reads requests and dispatches up to L
// concurrently (spec.md §4.H). It returns once the queue is drained (no
// requests in flight and none available to read) or a Fail signal aborts
// the stream, honoring ctx and the engine's ShutdownToken along the way.
// The return value is the total number of invocations that ran.
func (e *Engine[S]) Run(ctx context.Context) (int, error) {
	requests := coredataset.Get[*corerequest.Request](e.registry)

	e.seedsMu.Lock()
	seeds := e.seeds
	e.seeds = nil
	e.seedsMu.Unlock()
	for _, req := range seeds {
		if err := requests.Write(ctx, req); err != nil {
			return 0, err
		}
	}

	limit := int(e.concurrency.Load())
	if limit < 1 {
		limit = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.abortMu.Lock()
	e.abortFn = cancel
	e.abortMu.Unlock()

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-e.shutdown.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var (
		wg    sync.WaitGroup
		sem   = make(chan struct{}, limit)
		mu    sync.Mutex
		count int
	)

dispatchLoop:
	for {
		if runCtx.Err() != nil {
			break
		}
		req, ok, err := requests.Read(runCtx)
		if err != nil {
			cancel()
			break
		}
		if !ok {
			if e.inflight.Load() == 0 {
				break
			}
			select {
			case <-runCtx.Done():
				break dispatchLoop
			case <-time.After(time.Millisecond):
			}
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			e.inflight.Add(-1)
			break dispatchLoop
		}

		wg.Add(1)
		go func(req *corerequest.Request) {
			defer wg.Done()
			defer func() { <-sem }()
			defer e.inflight.Add(-1)

			e.awaitDeferral(runCtx, req.Tag())
			e.runOnce(runCtx, req)
			mu.Lock()
			count++
			mu.Unlock()
		}(req)
	}

	wg.Wait()
	cancel()
	<-watcherDone

	mu.Lock()
	defer mu.Unlock()
	return count, nil
}

// runOnce implements spec.md §4.H run_once: acquire a client, build a
// Context, dispatch through the router, and notify the engine of the
// resulting signal.
func (e *Engine[S]) runOnce(ctx context.Context, req *corerequest.Request) {
	ownerTag := req.Tag()

	client, err := e.backend.Client(ctx)
	if err != nil {
		e.notify(coresignal.FromError(err), ownerTag)
		return
	}

	cx := corecontext.New[corebackend.Client](req, client, e.registry)
	signal := e.router.Dispatch(ctx, cx)
	e.notify(signal, ownerTag)
}

// notify implements spec.md §4.H notify: Continue/Skip are no-ops,
// Wait/Hold update the deferral map for every tag the signal's query
// matches, and Fail aborts the producer stream.
func (e *Engine[S]) notify(signal coresignal.Signal, owner tag.Tag) {
	switch signal.Kind() {
	case coresignal.Wait, coresignal.Hold:
		now := time.Now()
		dur := signal.Duration()
		for _, t := range signal.Query().Tags(owner) {
			e.deferrals.update(t, now, dur)
		}
	case coresignal.Fail:
		e.abort()
	}
}

// deferredUntil reports the latest deferral deadline matching t, per
// spec.md §4.H "Deferral matching": t's own bucket (written by Owner,
// Single, or List queries) and the universal Fallback bucket (written by
// Every queries) both apply, except when t itself is Fallback, whose own
// bucket already is the universal one.
func (e *Engine[S]) deferredUntil(t tag.Tag) (time.Time, bool) {
	own, ok := e.deferrals.deadline(t)
	if t.IsFallback() {
		return own, ok
	}
	universal, uok := e.deferrals.deadline(tag.Fallback)
	switch {
	case ok && uok:
		if universal.After(own) {
			return universal, true
		}
		return own, true
	case ok:
		return own, true
	case uok:
		return universal, true
	default:
		return time.Time{}, false
	}
}

// awaitDeferral blocks until t's deferral deadline (if any) has passed,
// within DeferralSlack, or ctx is done. A goroutine calling this has already
// acquired its concurrency slot, so it must always fall through to dispatch
// (spec.md §5: already-buffered invocations run to completion even after a
// concurrent Fail aborts the stream) — cancellation only cuts the wait
// short, it never skips the dispatch.
func (e *Engine[S]) awaitDeferral(ctx context.Context, t tag.Tag) {
	until, ok := e.deferredUntil(t)
	if !ok {
		return
	}
	remaining := time.Until(until) - DeferralSlack
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

package middleware

import (
	"context"
	"sync/atomic"

	"github.com/corvidlabs/corvid/pkg/corebackend"
	"github.com/corvidlabs/corvid/pkg/corecontext"
	"github.com/corvidlabs/corvid/pkg/coresignal"
	"github.com/corvidlabs/corvid/pkg/handler"
)

// Metric tracks success/failure counts across handler invocations. Continue
// and Wait count as success; Skip, Hold, and Fail count as failure. Load is
// success_count - failure_count (spec.md §4.I).
type Metric struct {
	success atomic.Int64
	failure atomic.Int64
}

// NewMetric builds a zeroed Metric.
func NewMetric() *Metric { return &Metric{} }

// Load returns success_count - failure_count.
func (m *Metric) Load() int64 { return m.success.Load() - m.failure.Load() }

// Successes returns the raw success counter.
func (m *Metric) Successes() int64 { return m.success.Load() }

// Failures returns the raw failure counter.
func (m *Metric) Failures() int64 { return m.failure.Load() }

// MetricLayer builds a Layer that records every dispatched signal into m.
// Go's atomic.Int64 always uses sequentially consistent ordering, matching
// spec.md's "strictest available ordering" requirement without any extra
// annotation.
func MetricLayer[C corebackend.Client, S any](m *Metric) handler.Layer[C, S] {
	return func(next handler.Endpoint[C, S]) handler.Endpoint[C, S] {
		return func(ctx context.Context, cx *corecontext.Context[C], state *S) coresignal.Signal {
			sig := next(ctx, cx, state)
			switch sig.Kind() {
			case coresignal.Continue, coresignal.Wait:
				m.success.Add(1)
			case coresignal.Skip, coresignal.Hold, coresignal.Fail:
				m.failure.Add(1)
			}
			return sig
		}
	}
}

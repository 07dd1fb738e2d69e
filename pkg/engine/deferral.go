package engine

import (
	"sync"
	"time"

	"github.com/corvidlabs/corvid/pkg/tag"
)

// deferralMap is the per-tag deferral deadline store (spec.md §3, §4.H).
// Deadlines accumulate monotonically: a later event can only push a tag's
// deadline further out, never pull it back in. tag.Tag is comparable, so it
// is used directly as the map key.
type deferralMap struct {
	mu        sync.Mutex
	deadlines map[tag.Tag]time.Time
}

func newDeferralMap() *deferralMap {
	return &deferralMap{deadlines: make(map[tag.Tag]time.Time)}
}

// update applies one Wait/Hold event for t: the new deadline is
// max(existing+dur, now+dur), matching spec.md §4.H notify and the
// monotonicity property (spec.md §8 property 11).
func (d *deferralMap) update(t tag.Tag, now time.Time, dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	candidate := now.Add(dur)
	if existing, ok := d.deadlines[t]; ok {
		if alt := existing.Add(dur); alt.After(candidate) {
			candidate = alt
		}
	}
	d.deadlines[t] = candidate
}

// deadline returns the stored deadline for t, if any.
func (d *deferralMap) deadline(t tag.Tag) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	deadline, ok := d.deadlines[t]
	return deadline, ok
}

// Snapshot returns a copy of the current tag -> deadline map, for read-only
// inspection (pkg/diag).
func (d *deferralMap) Snapshot() map[tag.Tag]time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[tag.Tag]time.Time, len(d.deadlines))
	for t, deadline := range d.deadlines {
		out[t] = deadline
	}
	return out
}

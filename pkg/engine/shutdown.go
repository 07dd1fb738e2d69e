package engine

import "sync"

// ShutdownToken is a cloneable, externally settable cancellation signal
// (spec.md §5 "Cancellation"). Copies of a ShutdownToken share the same
// underlying channel, so any copy can observe a Cancel issued through any
// other copy.
type ShutdownToken struct {
	ch   chan struct{}
	once *sync.Once
}

// NewShutdownToken creates a fresh, uncancelled token.
func NewShutdownToken() ShutdownToken {
	return ShutdownToken{ch: make(chan struct{}), once: &sync.Once{}}
}

// Cancel signals shutdown. Safe to call more than once or from multiple
// clones concurrently.
func (t ShutdownToken) Cancel() {
	t.once.Do(func() { close(t.ch) })
}

// Done returns a channel closed once Cancel has been called.
func (t ShutdownToken) Done() <-chan struct{} {
	return t.ch
}

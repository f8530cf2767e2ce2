package navupdate

import "sync/atomic"

// StopToken is a cooperative cancellation signal for a fetch run.
//
// Stopping never interrupts a request that is already in flight; the run
// observes the token only after the current fund's result is recorded and
// before the next fund's fetch starts.
type StopToken struct {
	stopped atomic.Bool
}

// NewStopToken returns a token that has not been stopped.
func NewStopToken() *StopToken {
	return &StopToken{}
}

// Stop requests the run to end at the next fund boundary. It is safe to call
// from any goroutine and more than once.
func (t *StopToken) Stop() {
	t.stopped.Store(true)
}

// Stopped reports whether Stop has been called.
func (t *StopToken) Stopped() bool {
	return t.stopped.Load()
}

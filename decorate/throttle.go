package decorate

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/memoize/memo"
)

// ThrottleConfig configures a Throttler.
type ThrottleConfig[R any] struct {
	// Interval is the minimum time between runs of the callable.
	// Default: 100ms
	Interval time.Duration

	// OnResult receives the result of each replayed call.
	OnResult func(R, error)
}

// Throttler runs a callable at most once per interval.
//
// A call arriving while no window is open runs immediately on the caller's
// goroutine and opens a window. Calls arriving inside the window return
// ErrThrottled; the latest of them is kept and replayed when the window
// closes, which opens a new window.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: replays use the suppressed call's context values without its
//     cancellation.
//   - Results: immediate runs return their result to the caller. Replays
//     deliver theirs to OnResult from the timer goroutine.
type Throttler[C, R any] struct {
	fn     memo.Func[C, R]
	config ThrottleConfig[R]

	mu      sync.Mutex
	open    bool
	timer   *time.Timer
	next    *pending[C]
	stopped bool
}

// NewThrottler creates a Throttler for fn.
func NewThrottler[C, R any](fn memo.Func[C, R], config ThrottleConfig[R]) *Throttler[C, R] {
	if config.Interval <= 0 {
		config.Interval = 100 * time.Millisecond
	}
	return &Throttler[C, R]{fn: fn, config: config}
}

// Call runs fn now if no window is open. Otherwise it keeps the call for
// replay and returns ErrThrottled. It returns ErrStopped after Stop.
func (t *Throttler[C, R]) Call(ctx context.Context, recv C, args ...any) (R, error) {
	var zero R

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return zero, ErrStopped
	}
	if t.open {
		t.next = capture(ctx, recv, args)
		t.mu.Unlock()
		return zero, ErrThrottled
	}
	t.openWindowLocked()
	t.mu.Unlock()

	return t.fn(ctx, recv, args...)
}

// Pending reports whether a suppressed call is waiting for replay.
func (t *Throttler[C, R]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next != nil
}

// Stop drops any suppressed call and closes the window.
// Later calls return ErrStopped.
func (t *Throttler[C, R]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.next = nil
	t.open = false
	t.stopped = true
}

// openWindowLocked opens a window and arms its close. t.mu must be held.
func (t *Throttler[C, R]) openWindowLocked() {
	t.open = true
	t.timer = time.AfterFunc(t.config.Interval, t.closeWindow)
}

func (t *Throttler[C, R]) closeWindow() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	p := t.next
	t.next = nil
	if p == nil {
		t.open = false
		t.timer = nil
		t.mu.Unlock()
		return
	}
	t.openWindowLocked()
	t.mu.Unlock()

	v, err := t.fn(p.ctx, p.recv, p.args...)
	if t.config.OnResult != nil {
		t.config.OnResult(v, err)
	}
}

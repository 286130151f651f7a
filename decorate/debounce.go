package decorate

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/memoize/memo"
)

// pending is a call captured for deferred execution.
type pending[C any] struct {
	ctx  context.Context
	recv C
	args []any
}

func capture[C any](ctx context.Context, recv C, args []any) *pending[C] {
	return &pending[C]{
		ctx:  context.WithoutCancel(ctx),
		recv: recv,
		args: append([]any(nil), args...),
	}
}

// DebounceConfig configures a Debouncer.
type DebounceConfig[R any] struct {
	// Wait is the quiet period after the last call before the callable runs.
	// Default: 100ms
	Wait time.Duration

	// OnResult receives the result of each deferred run.
	OnResult func(R, error)
}

// Debouncer postpones a callable until calls stop arriving. Each Call
// restarts the quiet period; when it elapses the callable runs once with the
// receiver and arguments of the latest Call.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: deferred runs use the latest Call's context values without its
//     cancellation, because that Call has already returned.
//   - Results: delivered to OnResult from the timer goroutine.
type Debouncer[C, R any] struct {
	fn     memo.Func[C, R]
	config DebounceConfig[R]

	mu      sync.Mutex
	timer   *time.Timer
	next    *pending[C]
	gen     uint64
	stopped bool
}

// NewDebouncer creates a Debouncer for fn.
func NewDebouncer[C, R any](fn memo.Func[C, R], config DebounceConfig[R]) *Debouncer[C, R] {
	if config.Wait <= 0 {
		config.Wait = 100 * time.Millisecond
	}
	return &Debouncer[C, R]{fn: fn, config: config}
}

// Call schedules fn to run with recv and args after the quiet period,
// replacing any call already waiting. It returns ErrStopped after Stop.
func (d *Debouncer[C, R]) Call(ctx context.Context, recv C, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrStopped
	}

	d.next = capture(ctx, recv, args)
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.config.Wait, func() { d.fire(gen) })
	return nil
}

// Flush runs the waiting call immediately on the calling goroutine and
// reports whether there was one.
func (d *Debouncer[C, R]) Flush() bool {
	d.mu.Lock()
	p := d.take()
	d.mu.Unlock()

	if p == nil {
		return false
	}
	d.run(p)
	return true
}

// Pending reports whether a call is waiting to run.
func (d *Debouncer[C, R]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next != nil
}

// Stop drops any waiting call. Later calls return ErrStopped.
func (d *Debouncer[C, R]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.take()
	d.stopped = true
}

func (d *Debouncer[C, R]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// Superseded by a later Call, Flush or Stop.
		d.mu.Unlock()
		return
	}
	p := d.take()
	d.mu.Unlock()

	if p != nil {
		d.run(p)
	}
}

// take removes the waiting call and invalidates its timer. d.mu must be held.
func (d *Debouncer[C, R]) take() *pending[C] {
	p := d.next
	d.next = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return p
}

func (d *Debouncer[C, R]) run(p *pending[C]) {
	v, err := d.fn(p.ctx, p.recv, p.args...)
	if d.config.OnResult != nil {
		d.config.OnResult(v, err)
	}
}

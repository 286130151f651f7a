package decorate

import (
	"context"
	"slices"
	"sync"

	"github.com/jonwraymond/memoize/memo"
)

// Spy records the argument list of every call it forwards.
type Spy[C, R any] struct {
	mu    sync.Mutex
	calls [][]any
}

// NewSpy creates an empty Spy.
func NewSpy[C, R any]() *Spy[C, R] {
	return &Spy[C, R]{}
}

// Decorate wraps fn so that each call is recorded before it is forwarded.
// It has the Decorator signature and can be passed to Chain.
func (s *Spy[C, R]) Decorate(fn memo.Func[C, R]) memo.Func[C, R] {
	return func(ctx context.Context, recv C, args ...any) (R, error) {
		s.mu.Lock()
		s.calls = append(s.calls, slices.Clone(args))
		s.mu.Unlock()

		return fn(ctx, recv, args...)
	}
}

// Calls returns the recorded argument lists in call order.
func (s *Spy[C, R]) Calls() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]any, len(s.calls))
	for i, args := range s.calls {
		out[i] = slices.Clone(args)
	}
	return out
}

// Count returns the number of recorded calls.
func (s *Spy[C, R]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Reset discards the recorded calls.
func (s *Spy[C, R]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

package decorate

import (
	"context"
	"time"

	"github.com/jonwraymond/memoize/memo"
)

// Decorator wraps a callable in another with the same signature.
type Decorator[C, R any] func(memo.Func[C, R]) memo.Func[C, R]

// Chain applies decorators to fn. The first decorator is the outermost, so
// Chain(fn, a, b) behaves as a(b(fn)). Nil decorators are skipped.
func Chain[C, R any](fn memo.Func[C, R], decorators ...Decorator[C, R]) memo.Func[C, R] {
	// Build from the inside out
	for i := len(decorators) - 1; i >= 0; i-- {
		if decorators[i] != nil {
			fn = decorators[i](fn)
		}
	}
	return fn
}

// Memoize returns a Decorator that caches results by key.
// A nil key selects memo.FirstArg.
func Memoize[C, R any](key memo.KeyFunc, opts ...memo.Option) Decorator[C, R] {
	return func(fn memo.Func[C, R]) memo.Func[C, R] {
		return memo.Wrap(fn, key, opts...)
	}
}

// Delay returns a Decorator that waits d before forwarding each call.
// If ctx is done first the call is dropped and ctx.Err() returned.
func Delay[C, R any](d time.Duration) Decorator[C, R] {
	return func(fn memo.Func[C, R]) memo.Func[C, R] {
		return func(ctx context.Context, recv C, args ...any) (R, error) {
			if err := sleep(ctx, d); err != nil {
				var zero R
				return zero, err
			}
			return fn(ctx, recv, args...)
		}
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package decorate

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/memoize/memo"
)

// Timeout returns a Decorator that bounds each call to d.
// Non-positive d defaults to 30 seconds.
//
// The callable runs on its own goroutine with a derived context. A panic
// there is re-raised on the calling goroutine with the same value. When the
// deadline passes first, ErrTimeout is returned and the callable's eventual
// result, or panic, is discarded.
func Timeout[C, R any](d time.Duration) Decorator[C, R] {
	if d <= 0 {
		d = 30 * time.Second
	}

	type result struct {
		value    R
		err      error
		panicked bool
		panicVal any
	}

	return func(fn memo.Func[C, R]) memo.Func[C, R] {
		return func(ctx context.Context, recv C, args ...any) (R, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			done := make(chan result, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						done <- result{panicked: true, panicVal: p}
					}
				}()
				v, err := fn(ctx, recv, args...)
				done <- result{value: v, err: err}
			}()

			select {
			case r := <-done:
				if r.panicked {
					panic(r.panicVal)
				}
				return r.value, r.err
			case <-ctx.Done():
				var zero R
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return zero, ErrTimeout
				}
				return zero, ctx.Err()
			}
		}
	}
}

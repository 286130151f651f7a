// Package decorate provides composable wrappers for memo.Func callables.
//
// A Decorator takes a callable and returns one with the same signature, so
// decorators stack with Chain. The first decorator passed to Chain is the
// outermost.
//
// # Decorators
//
//   - Memoize: caches results by key through memo.Wrap.
//
//   - Spy: records the argument list of every call.
//
//   - Delay: waits a fixed duration before forwarding a call.
//
//   - Retry: retries failed calls with configurable backoff.
//
//   - Timeout: bounds the duration of each call.
//
// Debouncer and Throttler change when a call happens rather than how, so
// they are types with their own Call method instead of Decorators. Results of
// deferred calls are delivered through a callback.
//
// # Usage
//
//	spy := decorate.NewSpy[any, int]()
//	fn := decorate.Chain(compute,
//	    spy.Decorate,
//	    decorate.Memoize[any, int](memo.Tuple),
//	    decorate.Retry[any, int](decorate.RetryConfig{MaxAttempts: 3}),
//	)
//
//	v, err := fn(ctx, nil, 3, 5)
package decorate

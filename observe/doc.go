// Package observe provides observability primitives for memoized calls.
//
// It is a pure instrumentation library: tracing spans around computations,
// lookup and computation metrics, and structured logging. Consumers build a
// Middleware and hand it to memo.WithMiddleware.
package observe

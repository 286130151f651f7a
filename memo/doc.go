// Package memo provides a memoizing call decorator.
//
// A Memoizer wraps a callable, derives a key from each call's arguments, and
// runs the callable at most once per key for the lifetime of the Memoizer.
// The call-context (receiver) and arguments are forwarded unchanged. Failed
// calls are never cached, so the next call with the same key retries.
//
// The cache is unbounded and is owned by a single Memoizer; wrapping two
// callables yields two independent caches. Results are shared between
// receivers, so the callable's result must depend only on its arguments.
package memo

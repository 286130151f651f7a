package memo

import "context"

type pair[A, B comparable] struct {
	a A
	b B
}

// Wrap1 memoizes a one-argument function keyed by its argument.
func Wrap1[A comparable, R any](fn func(A) (R, error), opts ...Option) func(A) (R, error) {
	m := New(func(_ context.Context, _ struct{}, args ...any) (R, error) {
		a, _ := args[0].(A)
		return fn(a)
	}, FirstArg, named(fn, opts)...)

	return func(a A) (R, error) {
		return m.Call(context.Background(), struct{}{}, a)
	}
}

// Wrap2 memoizes a two-argument function keyed by the ordered pair of its
// arguments.
func Wrap2[A, B comparable, R any](fn func(A, B) (R, error), opts ...Option) func(A, B) (R, error) {
	m := New(func(_ context.Context, _ struct{}, args ...any) (R, error) {
		a, _ := args[0].(A)
		b, _ := args[1].(B)
		return fn(a, b)
	}, pairKey[A, B], named(fn, opts)...)

	return func(a A, b B) (R, error) {
		return m.Call(context.Background(), struct{}{}, a, b)
	}
}

// Pure1 memoizes a one-argument function that cannot fail.
// It panics if a is an interface value holding an uncomparable type.
func Pure1[A comparable, R any](fn func(A) R, opts ...Option) func(A) R {
	m := New(func(_ context.Context, _ struct{}, args ...any) (R, error) {
		a, _ := args[0].(A)
		return fn(a), nil
	}, FirstArg, named(fn, opts)...)

	return func(a A) R {
		r, err := m.Call(context.Background(), struct{}{}, a)
		if err != nil {
			panic(err)
		}
		return r
	}
}

// Method1 memoizes a one-argument method. The receiver is forwarded on every
// computation but is not part of the key.
func Method1[C any, A comparable, R any](fn func(C, A) (R, error), opts ...Option) func(C, A) (R, error) {
	m := New(func(_ context.Context, recv C, args ...any) (R, error) {
		a, _ := args[0].(A)
		return fn(recv, a)
	}, FirstArg, named(fn, opts)...)

	return func(recv C, a A) (R, error) {
		return m.Call(context.Background(), recv, a)
	}
}

func pairKey[A, B comparable](args []any) (any, error) {
	a, _ := args[0].(A)
	b, _ := args[1].(B)
	return pair[A, B]{a: a, b: b}, nil
}

// named puts the original function's name ahead of opts so that an explicit
// WithName still wins.
func named(fn any, opts []Option) []Option {
	return append([]Option{WithName(funcName(fn))}, opts...)
}

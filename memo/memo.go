package memo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/memoize/observe"
)

// Func is the signature of a callable that can be memoized.
//
// recv is the call-context the callable executes against (the owning value of
// a method, or a zero value for plain functions). args is the positional
// argument list. Failure is reported through the error return.
type Func[C, R any] func(ctx context.Context, recv C, args ...any) (R, error)

// Memoizer wraps a Func and caches its results by key.
//
// Contract:
//   - At most once: for a fixed key the wrapped Func runs at most once over
//     the Memoizer's lifetime, including under concurrent calls.
//   - Errors: errors from the wrapped Func are returned unchanged and never
//     cached. Key derivation failures wrap ErrKey.
//   - Concurrency: safe for concurrent use. No lock is held while the wrapped
//     Func runs, so a memoized Func may call itself recursively with other keys.
//   - Ownership: the cache belongs to this Memoizer and is never evicted.
type Memoizer[C, R any] struct {
	fn    Func[C, R]
	key   KeyFunc
	store *store[R]
	group singleflight.Group
	meta  observe.FuncMeta
	mw    *observe.Middleware

	hits         atomic.Uint64
	misses       atomic.Uint64
	computations atomic.Uint64
	failures     atomic.Uint64
	shared       atomic.Uint64
}

// Stats is a snapshot of a Memoizer's counters.
type Stats struct {
	// Hits counts calls served from the cache.
	Hits uint64
	// Misses counts calls that found no cached result.
	Misses uint64
	// Computations counts invocations of the wrapped Func.
	Computations uint64
	// Failures counts invocations of the wrapped Func that returned an error.
	Failures uint64
	// Shared counts calls that received the result of another caller's
	// in-flight computation.
	Shared uint64
}

// Option configures a Memoizer.
type Option func(*options)

type options struct {
	name      string
	namespace string
	version   string
	mw        *observe.Middleware
}

// WithName sets the name reported in telemetry. Defaults to the wrapped
// function's symbol name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithNamespace sets the namespace reported in telemetry.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithVersion sets the version reported in telemetry.
func WithVersion(v string) Option {
	return func(o *options) {
		o.version = v
	}
}

// WithMiddleware records lookups and traces computations through mw.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) {
		o.mw = mw
	}
}

// New creates a Memoizer for fn. A nil key selects FirstArg.
// It panics if fn is nil.
func New[C, R any](fn Func[C, R], key KeyFunc, opts ...Option) *Memoizer[C, R] {
	if fn == nil {
		panic("memo: nil func")
	}
	if key == nil {
		key = FirstArg
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = funcName(fn)
	}

	return &Memoizer[C, R]{
		fn:    fn,
		key:   key,
		store: newStore[R](),
		meta: observe.FuncMeta{
			Namespace: o.namespace,
			Name:      o.name,
			Version:   o.version,
			Instance:  uuid.NewString(),
		},
		mw: o.mw,
	}
}

// Wrap memoizes fn and returns a Func with the same signature.
func Wrap[C, R any](fn Func[C, R], key KeyFunc, opts ...Option) Func[C, R] {
	return New(fn, key, opts...).Call
}

// Func returns the memoized callable.
func (m *Memoizer[C, R]) Func() Func[C, R] {
	return m.Call
}

// Call returns the cached result for the key derived from args, computing it
// with recv and args on a miss.
func (m *Memoizer[C, R]) Call(ctx context.Context, recv C, args ...any) (R, error) {
	var zero R

	key, err := m.key(args)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrKey, err)
	}
	if !isComparable(key) {
		return zero, fmt.Errorf("%w: %T", ErrUncomparableKey, key)
	}
	if !reflexive(key) {
		return zero, fmt.Errorf("%w: %T is not equal to itself", ErrUncomparableKey, key)
	}

	e, v, hit := m.store.lookup(key)
	if hit {
		m.hits.Add(1)
		m.lookup(ctx, true)
		return v, nil
	}
	m.misses.Add(1)
	m.lookup(ctx, false)

	for {
		ran := false
		out, err, shared := m.group.Do(e.flight, func() (any, error) {
			return m.fly(ctx, key, e, recv, args, &ran)
		})
		if errors.Is(err, errDetached) {
			// The entry was dropped after a failed flight; join the live one.
			if e, v, hit = m.store.lookup(key); hit {
				return v, nil
			}
			continue
		}
		if shared && !ran {
			m.shared.Add(1)
		}
		var p *panicked
		if errors.As(err, &p) {
			panic(p.value)
		}
		if err != nil {
			return zero, err
		}
		r, _ := out.(R)
		return r, nil
	}
}

// fly computes the result for e. It runs as the single flight for e, so no
// other goroutine fills or drops e meanwhile. Failed flights drop e so that
// the cache keeps no record of the key.
func (m *Memoizer[C, R]) fly(ctx context.Context, key any, e *entry[R], recv C, args []any, ran *bool) (out any, err error) {
	// A flight for this entry may have finished between lookup and Do.
	if v, ok := m.store.load(e); ok {
		return v, nil
	}
	if !m.store.attached(key, e) {
		return nil, errDetached
	}

	*ran = true
	m.computations.Add(1)
	defer func() {
		if p := recover(); p != nil {
			err = &panicked{value: p}
		}
		if err != nil {
			m.failures.Add(1)
			m.store.drop(key, e)
		}
	}()

	r, err := m.compute(ctx, recv, args)
	if err != nil {
		return nil, err
	}
	m.store.fill(e, r)
	return r, nil
}

// Len returns the number of cached results.
func (m *Memoizer[C, R]) Len() int {
	return m.store.len()
}

// Stats returns a snapshot of the Memoizer's counters.
func (m *Memoizer[C, R]) Stats() Stats {
	return Stats{
		Hits:         m.hits.Load(),
		Misses:       m.misses.Load(),
		Computations: m.computations.Load(),
		Failures:     m.failures.Load(),
		Shared:       m.shared.Load(),
	}
}

// ID returns the Memoizer's instance ID, reported as memo.instance in telemetry.
func (m *Memoizer[C, R]) ID() string {
	return m.meta.Instance
}

// Meta returns the telemetry metadata of the Memoizer.
func (m *Memoizer[C, R]) Meta() observe.FuncMeta {
	return m.meta
}

func (m *Memoizer[C, R]) compute(ctx context.Context, recv C, args []any) (R, error) {
	if m.mw == nil {
		return m.fn(ctx, recv, args...)
	}

	call := m.mw.Wrap(func(ctx context.Context, _ observe.FuncMeta, args []any) (any, error) {
		return m.fn(ctx, recv, args...)
	})
	out, err := call(ctx, m.meta, args)
	r, _ := out.(R)
	return r, err
}

func (m *Memoizer[C, R]) lookup(ctx context.Context, hit bool) {
	if m.mw != nil {
		m.mw.Lookup(ctx, m.meta, hit)
	}
}

// reflexive reports whether key equals itself. Keys holding NaN never do
// and could never be found again.
func reflexive(key any) bool {
	k := key
	return k == key
}

// errDetached reports a flight for an entry that was already dropped.
var errDetached = errors.New("memo: entry detached")

// panicked carries a panic value from a flight to every caller.
type panicked struct {
	value any
}

func (p *panicked) Error() string {
	return fmt.Sprintf("memo: panic: %v", p.value)
}

func funcName(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return "func"
}

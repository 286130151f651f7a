package decorate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewThrottler_Defaults(t *testing.T) {
	th := NewThrottler(func(context.Context, any, ...any) (int, error) { return 0, nil }, ThrottleConfig[int]{})

	if th.config.Interval != 100*time.Millisecond {
		t.Errorf("Interval = %v, want 100ms", th.config.Interval)
	}
}

func TestThrottler_FirstCallRunsImmediately(t *testing.T) {
	th := NewThrottler(func(_ context.Context, _ any, args ...any) (int, error) {
		return args[0].(int) * 2, nil
	}, ThrottleConfig[int]{Interval: time.Hour})
	defer th.Stop()

	v, err := th.Call(context.Background(), nil, 21)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != 42 {
		t.Errorf("Call() = %d, want 42", v)
	}
}

func TestThrottler_SuppressesAndReplaysLatest(t *testing.T) {
	rec := newRecorder[int]()
	var runs atomic.Int32
	th := NewThrottler(func(_ context.Context, _ any, args ...any) (int, error) {
		runs.Add(1)
		return args[0].(int), nil
	}, ThrottleConfig[int]{Interval: 40 * time.Millisecond, OnResult: rec.record})
	defer th.Stop()

	ctx := context.Background()
	if v, err := th.Call(ctx, nil, 1); err != nil || v != 1 {
		t.Fatalf("Call(1) = %d, %v; want 1, nil", v, err)
	}
	for _, n := range []int{2, 3, 4} {
		if _, err := th.Call(ctx, nil, n); err != ErrThrottled {
			t.Errorf("Call(%d) error = %v, want %v", n, err, ErrThrottled)
		}
	}
	if !th.Pending() {
		t.Error("Pending() = false with suppressed calls")
	}

	rec.wait(t)
	results, _ := rec.snapshot()
	if len(results) != 1 || results[0] != 4 {
		t.Errorf("replayed = %v, want [4]", results)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2", got)
	}
}

func TestThrottler_ReplayOpensNewWindow(t *testing.T) {
	rec := newRecorder[int]()
	th := NewThrottler(func(_ context.Context, _ any, args ...any) (int, error) {
		return args[0].(int), nil
	}, ThrottleConfig[int]{Interval: 40 * time.Millisecond, OnResult: rec.record})
	defer th.Stop()

	ctx := context.Background()
	_, _ = th.Call(ctx, nil, 1)
	_, _ = th.Call(ctx, nil, 2)
	rec.wait(t)

	// The replay of 2 opened a window, so this call is suppressed too.
	if _, err := th.Call(ctx, nil, 3); err != ErrThrottled {
		t.Errorf("Call(3) error = %v, want %v", err, ErrThrottled)
	}
}

func TestThrottler_WindowCloses(t *testing.T) {
	var runs atomic.Int32
	th := NewThrottler(func(context.Context, any, ...any) (int, error) {
		runs.Add(1)
		return 0, nil
	}, ThrottleConfig[int]{Interval: 10 * time.Millisecond})
	defer th.Stop()

	ctx := context.Background()
	if _, err := th.Call(ctx, nil); err != nil {
		t.Fatalf("first Call() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := th.Call(ctx, nil); err != nil {
		t.Errorf("Call() after window error = %v, want nil", err)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2", got)
	}
}

func TestThrottler_Stop(t *testing.T) {
	var runs atomic.Int32
	th := NewThrottler(func(context.Context, any, ...any) (int, error) {
		runs.Add(1)
		return 0, nil
	}, ThrottleConfig[int]{Interval: 10 * time.Millisecond})

	ctx := context.Background()
	_, _ = th.Call(ctx, nil)
	_, _ = th.Call(ctx, nil)
	th.Stop()
	time.Sleep(40 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
	if _, err := th.Call(ctx, nil); err != ErrStopped {
		t.Errorf("Call() after Stop error = %v, want %v", err, ErrStopped)
	}
}

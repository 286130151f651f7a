package decorate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/memoize/memo"
)

func TestChain_Order(t *testing.T) {
	var trace []string
	tag := func(name string) Decorator[any, string] {
		return func(fn memo.Func[any, string]) memo.Func[any, string] {
			return func(ctx context.Context, recv any, args ...any) (string, error) {
				trace = append(trace, name)
				return fn(ctx, recv, args...)
			}
		}
	}

	fn := Chain(func(context.Context, any, ...any) (string, error) {
		trace = append(trace, "fn")
		return "ok", nil
	}, tag("a"), nil, tag("b"))

	v, err := fn(context.Background(), nil)
	if err != nil {
		t.Fatalf("call error = %v", err)
	}
	if v != "ok" {
		t.Errorf("call = %q, want ok", v)
	}
	if got := strings.Join(trace, ","); got != "a,b,fn" {
		t.Errorf("order = %s, want a,b,fn", got)
	}
}

func TestChain_NoDecorators(t *testing.T) {
	fn := Chain(func(context.Context, int, ...any) (int, error) { return 7, nil })

	v, _ := fn(context.Background(), 0)
	if v != 7 {
		t.Errorf("call = %d, want 7", v)
	}
}

func TestMemoize_SpyOutside(t *testing.T) {
	var computed atomic.Int32
	spy := NewSpy[any, int]()
	add := Chain(func(_ context.Context, _ any, args ...any) (int, error) {
		computed.Add(1)
		return args[0].(int) + args[1].(int), nil
	}, spy.Decorate, Memoize[any, int](memo.Join(",")))

	ctx := context.Background()
	for range 3 {
		if v, _ := add(ctx, nil, 3, 5); v != 8 {
			t.Fatalf("add(3, 5) = %d, want 8", v)
		}
	}
	if v, _ := add(ctx, nil, 5, 3); v != 8 {
		t.Fatalf("add(5, 3) = %d, want 8", v)
	}

	if got := computed.Load(); got != 2 {
		t.Errorf("computed = %d, want 2", got)
	}
	if got := spy.Count(); got != 4 {
		t.Errorf("spy.Count() = %d, want 4", got)
	}
}

func TestMemoize_SpyInside(t *testing.T) {
	spy := NewSpy[any, int]()
	square := Chain(func(_ context.Context, _ any, args ...any) (int, error) {
		n := args[0].(int)
		return n * n, nil
	}, Memoize[any, int](nil), spy.Decorate)

	ctx := context.Background()
	for _, n := range []int{2, 2, 3, 2, 3} {
		if _, err := square(ctx, nil, n); err != nil {
			t.Fatalf("square(%d) error = %v", n, err)
		}
	}

	want := [][]any{{2}, {3}}
	if got := spy.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("spy.Calls() = %v, want %v", got, want)
	}
}

func TestMemoize_RetryInside(t *testing.T) {
	var attempts atomic.Int32
	fn := Chain(func(context.Context, any, ...any) (string, error) {
		if attempts.Add(1) < 3 {
			return "", errors.New("flaky")
		}
		return "ready", nil
	},
		Memoize[any, string](nil),
		Retry[any, string](RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, Strategy: BackoffConstant}),
	)

	ctx := context.Background()
	for range 2 {
		v, err := fn(ctx, nil, "k")
		if err != nil {
			t.Fatalf("call error = %v", err)
		}
		if v != "ready" {
			t.Errorf("call = %q, want ready", v)
		}
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestDelay(t *testing.T) {
	fn := Chain(func(context.Context, any, ...any) (int, error) { return 1, nil },
		Delay[any, int](20*time.Millisecond))

	start := time.Now()
	v, err := fn(context.Background(), nil)
	if err != nil {
		t.Fatalf("call error = %v", err)
	}
	if v != 1 {
		t.Errorf("call = %d, want 1", v)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 20ms", elapsed)
	}
}

func TestDelay_ContextCancelled(t *testing.T) {
	called := false
	fn := Chain(func(context.Context, any, ...any) (int, error) {
		called = true
		return 1, nil
	}, Delay[any, int](time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := fn(ctx, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("call error = %v, want %v", err, context.DeadlineExceeded)
	}
	if called {
		t.Error("callable ran after context was cancelled")
	}
}

func TestDelay_ForwardsArguments(t *testing.T) {
	fn := Chain(func(_ context.Context, recv string, args ...any) (string, error) {
		return fmt.Sprint(recv, args), nil
	}, Delay[string, string](time.Millisecond))

	v, _ := fn(context.Background(), "r", 1, "two")
	if v != "r[1 two]" {
		t.Errorf("call = %q, want %q", v, "r[1 two]")
	}
}

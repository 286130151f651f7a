package observe_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/memoize/observe"
)

func ExampleNewObserver() {
	cfg := observe.Config{
		ServiceName: "example-service",
		Version:     "1.0.0",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	}

	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, cfg)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	fmt.Println("Observer created successfully")
	// Output:
	// Observer created successfully
}

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "my-service",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 2},
	}

	err := cfg.Validate()
	fmt.Println(errors.Is(err, observe.ErrInvalidSamplePct))
	// Output:
	// true
}

func ExampleMiddleware_Wrap() {
	mw := observe.NewMiddleware(nil, nil, nil)

	square := mw.Wrap(func(_ context.Context, _ observe.FuncMeta, args []any) (any, error) {
		n := args[0].(int)
		return n * n, nil
	})

	out, err := square(context.Background(), observe.FuncMeta{Name: "square"}, []any{7})
	fmt.Println(out, err)
	// Output:
	// 49 <nil>
}

func ExampleFuncMeta_SpanName() {
	meta := observe.FuncMeta{Namespace: "geo", Name: "distance"}
	fmt.Println(meta.SpanName())
	fmt.Println(meta.FuncID())
	// Output:
	// memo.compute.geo.distance
	// geo.distance
}

package decorate

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/memoize/memo"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// RetryConfig configures the Retry decorator.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	Jitter bool

	// RetryIf reports whether an error should trigger a retry.
	// Default: all non-nil errors.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = func(err error) bool { return err != nil }
	}
	return c
}

// Retry returns a Decorator that retries failed calls with backoff.
// The last error is returned once attempts are exhausted.
//
// Placed inside Memoize, each miss retries until it succeeds or gives up.
// Failed attempts are never cached, so later calls start over.
func Retry[C, R any](config RetryConfig) Decorator[C, R] {
	config = config.withDefaults()

	return func(fn memo.Func[C, R]) memo.Func[C, R] {
		return func(ctx context.Context, recv C, args ...any) (R, error) {
			var (
				result R
				err    error
			)
			for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
				result, err = fn(ctx, recv, args...)
				if err == nil || !config.RetryIf(err) {
					return result, err
				}
				if attempt >= config.MaxAttempts {
					break
				}

				delay := config.delay(attempt)
				if config.OnRetry != nil {
					config.OnRetry(attempt, err, delay)
				}
				if werr := sleep(ctx, delay); werr != nil {
					var zero R
					return zero, werr
				}
			}
			return result, err
		}
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	var delay time.Duration

	switch c.Strategy {
	case BackoffConstant:
		delay = c.InitialDelay
	case BackoffLinear:
		delay = c.InitialDelay * time.Duration(attempt)
	default:
		delay = time.Duration(float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1)))
	}

	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	if c.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	return delay
}

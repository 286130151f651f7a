package decorate

import "errors"

// Sentinel errors for decorators.
var (
	// ErrThrottled is returned for a call suppressed by a Throttler.
	ErrThrottled = errors.New("decorate: call throttled")

	// ErrStopped is returned by Debouncer and Throttler after Stop.
	ErrStopped = errors.New("decorate: stopped")

	// ErrTimeout is returned when a call exceeds its Timeout.
	ErrTimeout = errors.New("decorate: call timed out")
)

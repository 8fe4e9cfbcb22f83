package marketdata

import (
	"context"
	"time"
)

// RunBounded races fn against a deadline and returns its result, or
// fallback if the deadline expires first. The racing call is not
// cancelled: it keeps running and may still populate the cache for
// future callers, but its eventual result is discarded for this one.
//
// Every adapter call in the analytics fan-out goes through this helper
// so the timeout-with-fallback behavior lives in exactly one place.
func RunBounded[T any](ctx context.Context, timeout time.Duration, fallback T, fn func(context.Context) T) T {
	done := make(chan T, 1)

	go func() {
		done <- fn(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-done:
		return v
	case <-timer.C:
		return fallback
	case <-ctx.Done():
		return fallback
	}
}

package resilience

import (
	"context"
	"errors"
	"math"
	"time"

	"wallet-ledger/pkg/apperror"
)

// RetryConfig configures bounded exponential backoff around a single call.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// BackoffFactor multiplies the delay on each subsequent retry.
	BackoffFactor float64
	// AttemptTimeout bounds each individual attempt. Zero disables the
	// per-attempt deadline.
	AttemptTimeout time.Duration
	// Retryable classifies errors; nil means DefaultRetryable.
	Retryable func(error) bool
}

// DefaultRetryable treats server-class failures (downstream 5xx-equivalents,
// timeouts, untyped errors) as retryable. Client-class outcomes carry a
// specific AppError kind and propagate immediately.
func DefaultRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch apperror.KindOf(err) {
	case apperror.KindDownstreamFailure, apperror.KindInternal:
		return true
	default:
		return false
	}
}

// backoffDelay computes BaseDelay * BackoffFactor^attempt.
func (c RetryConfig) backoffDelay(attempt int) time.Duration {
	return time.Duration(float64(c.BaseDelay) * math.Pow(c.BackoffFactor, float64(attempt)))
}

// sleepCtx waits for d as a scheduled resumption; it wakes early when ctx is
// cancelled and never blocks unrelated work.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retry runs call with an explicit bounded loop (no recursion); attempt
// index and delay stay visible and cancellation flows through ctx. sleep is
// injectable for tests.
func retry(ctx context.Context, cfg RetryConfig, sleep func(context.Context, time.Duration) error, call func(ctx context.Context) error) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, cfg.backoffDelay(attempt-1)); err != nil {
				return err
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.AttemptTimeout)
		}

		err := call(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

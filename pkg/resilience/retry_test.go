package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wallet-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep captures requested delays without actually waiting.
func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func retryableErr() error {
	return apperror.ErrDownstreamFailure("wallet-service", fmt.Errorf("503"))
}

func TestRetry_ExhaustsAttemptsWithExponentialBackoff(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:    3,
		BaseDelay:     500 * time.Millisecond,
		BackoffFactor: 2,
	}

	var delays []time.Duration
	attempts := 0
	err := retry(context.Background(), cfg, recordingSleep(&delays), func(ctx context.Context) error {
		attempts++
		return retryableErr()
	})

	assert.True(t, apperror.IsKind(err, apperror.KindDownstreamFailure))
	assert.Equal(t, 4, attempts, "1 original + 3 retries")
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		2000 * time.Millisecond,
	}, delays)
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Second, BackoffFactor: 2}

	var delays []time.Duration
	attempts := 0
	err := retry(context.Background(), cfg, recordingSleep(&delays), func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
}

func TestRetry_SuccessAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, BackoffFactor: 2}

	var delays []time.Duration
	attempts := 0
	err := retry(context.Background(), cfg, recordingSleep(&delays), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return retryableErr()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, delays, 2)
}

func TestRetry_ClientClassErrorNotRetried(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Second, BackoffFactor: 2}

	attempts := 0
	err := retry(context.Background(), cfg, recordingSleep(&[]time.Duration{}), func(ctx context.Context) error {
		attempts++
		return apperror.ErrWalletAlreadyExists()
	})

	assert.True(t, apperror.IsKind(err, apperror.KindWalletAlreadyExists))
	assert.Equal(t, 1, attempts, "4xx-equivalents propagate immediately")
}

func TestRetry_AttemptTimeoutIsRetryable(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:     2,
		BaseDelay:      time.Millisecond,
		BackoffFactor:  2,
		AttemptTimeout: 10 * time.Millisecond,
	}

	attempts := 0
	err := retry(context.Background(), cfg, nil, func(ctx context.Context) error {
		attempts++
		<-ctx.Done() // attempt hangs until its deadline fires
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, attempts, "timed-out attempts are server-class and retried")
}

func TestRetry_CallerCancellationStopsBackoff(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, BackoffFactor: 2}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := retry(ctx, cfg, nil, func(ctx context.Context) error {
		attempts++
		return retryableErr()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "cancellation during backoff aborts the loop")
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"downstream failure", retryableErr(), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"untyped error", fmt.Errorf("connection reset"), true},
		{"conflict", apperror.ErrWalletAlreadyExists(), false},
		{"validation", apperror.Validation("bad amount"), false},
		{"circuit open", apperror.ErrCircuitOpen("dep"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryable(tt.err))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 500 * time.Millisecond, BackoffFactor: 2}
	assert.Equal(t, 500*time.Millisecond, cfg.backoffDelay(0))
	assert.Equal(t, time.Second, cfg.backoffDelay(1))
	assert.Equal(t, 2*time.Second, cfg.backoffDelay(2))
}

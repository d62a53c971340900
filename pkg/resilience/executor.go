package resilience

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Config carries the full resilience policy for one dependency.
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	MaxRetries       int
	BaseDelay        time.Duration
	BackoffFactor    float64
	AttemptTimeout   time.Duration
}

// Executor composes a circuit breaker around a bounded-retry policy for one
// downstream dependency. Construct one per dependency and inject it; the
// breaker state is shared across all concurrent callers of that dependency.
//
// The breaker records one logical outcome per Execute call: a call that
// exhausts its retries counts as a single failure, not one per attempt.
type Executor struct {
	name    string
	breaker *CircuitBreaker
	retry   RetryConfig
	log     zerolog.Logger

	// sleep is injectable for tests; nil means timer-based sleepCtx.
	sleep func(context.Context, time.Duration) error
}

// NewExecutor creates an Executor for the named dependency. State changes
// of the breaker are logged for operational monitoring.
func NewExecutor(name string, cfg Config, log zerolog.Logger) *Executor {
	e := &Executor{
		name: name,
		retry: RetryConfig{
			MaxRetries:     cfg.MaxRetries,
			BaseDelay:      cfg.BaseDelay,
			BackoffFactor:  cfg.BackoffFactor,
			AttemptTimeout: cfg.AttemptTimeout,
		},
		log: log,
	}
	e.breaker = NewCircuitBreaker(name, BreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		ResetTimeout:     cfg.ResetTimeout,
		OnStateChange: func(from, to State) {
			evt := log.Warn()
			if to == StateClosed {
				evt = log.Info()
			}
			evt.
				Str("dependency", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return e
}

// Execute runs call under the composed policy. It returns the call's success,
// a CircuitOpen error without attempting the call, or the call's own last
// error after retries are exhausted.
func (e *Executor) Execute(ctx context.Context, call func(ctx context.Context) error) error {
	return e.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry(ctx, e.retry, e.sleep, call)
	})
}

// Breaker exposes the underlying breaker for observability.
func (e *Executor) Breaker() *CircuitBreaker {
	return e.breaker
}

package resilience

import (
	"context"
	"sync"
	"time"

	"wallet-ledger/pkg/apperror"
)

// State is the circuit breaker state.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker while closed.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before allowing a
	// half-open trial call.
	ResetTimeout time.Duration
	// OnStateChange, if set, is invoked (outside the breaker lock is NOT
	// guaranteed; keep it cheap) on every state transition.
	OnStateChange func(from, to State)
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// CircuitBreaker guards one downstream dependency. It is created once per
// dependency, shared across concurrent callers, and never persisted. All
// state mutation is serialized by an internal mutex; the wrapped call itself
// runs outside the lock.
type CircuitBreaker struct {
	name string
	cfg  BreakerConfig

	mu            sync.Mutex
	state         State
	failureCount  int
	nextAttemptAt time.Time
	trialInFlight bool
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg,
		state: StateClosed,
	}
}

// Execute runs call through the breaker. While open it fails fast with an
// AppError of kind CircuitOpen and makes no downstream call. The open->half-open
// transition is checked lazily on the next incoming call, not by a timer.
func (b *CircuitBreaker) Execute(ctx context.Context, call func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := call(ctx)
	b.record(err)
	return err
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the current consecutive-failure count.
func (b *CircuitBreaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// allow decides whether a call may proceed, performing the lazy
// open->half-open transition.
func (b *CircuitBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.cfg.Now().Before(b.nextAttemptAt) {
			return apperror.ErrCircuitOpen(b.name)
		}
		b.setState(StateHalfOpen)
		b.trialInFlight = true
		return nil
	case StateHalfOpen:
		// Only the single trial call probes the dependency.
		if b.trialInFlight {
			return apperror.ErrCircuitOpen(b.name)
		}
		b.trialInFlight = true
		return nil
	default:
		return nil
	}
}

// record applies a call outcome to the state machine. Exactly one outcome is
// recorded per wrapped call, regardless of how many retry attempts it made.
func (b *CircuitBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialInFlight = false

	if err == nil {
		b.failureCount = 0
		if b.state == StateHalfOpen {
			b.setState(StateClosed)
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.nextAttemptAt = b.cfg.Now().Add(b.cfg.ResetTimeout)
		b.setState(StateOpen)
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.nextAttemptAt = b.cfg.Now().Add(b.cfg.ResetTimeout)
			b.setState(StateOpen)
		}
	}
}

// setState transitions and notifies. Caller holds the lock.
func (b *CircuitBreaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

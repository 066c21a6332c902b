package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	// CircuitClosed passes calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until the reset timeout elapses.
	CircuitOpen
	// CircuitHalfOpen lets a single trial call through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the guarded backend in logs.
	Name string

	// FailureThreshold is the number of consecutive failures that opens the circuit. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a trial call. Default: 30s.
	ResetTimeout time.Duration

	// ShouldTrip decides whether an error counts as a failure. Defaults to IsTransient,
	// so not-found and validation errors never open the circuit.
	ShouldTrip func(err error) bool

	// OnStateChange is called after every transition.
	OnStateChange func(name string, from, to CircuitState)
}

// CircuitBreaker fails fast against a backend that keeps failing.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	trialing bool
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = IsTransient
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// FromCircuitConfig builds a breaker from config-file settings.
func FromCircuitConfig(name string, failureThreshold, resetTimeoutSecs int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: failureThreshold,
		ResetTimeout:     time.Duration(resetTimeoutSecs) * time.Second,
		OnStateChange:    CircuitLogger,
	})
}

// CircuitLogger logs breaker transitions.
func CircuitLogger(name string, from, to CircuitState) {
	zap.L().Warn("circuit state changed",
		zap.String("backend", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// State reports the current state, moving an expired open circuit to half-open.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		cb.transition(CircuitHalfOpen)
	}
	return cb.state
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := ExecuteVal(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// ExecuteVal runs fn through cb and returns its value.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	cb.record(err)
	return val, err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.ResetTimeout {
			return eris.Wrapf(ErrCircuitOpen, "resilience: %s", cb.cfg.Name)
		}
		cb.transition(CircuitHalfOpen)
		cb.trialing = true
		return nil
	case CircuitHalfOpen:
		if cb.trialing {
			return eris.Wrapf(ErrCircuitOpen, "resilience: %s trial call in flight", cb.cfg.Name)
		}
		cb.trialing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	tripped := err != nil && cb.cfg.ShouldTrip(err)
	if cb.state == CircuitHalfOpen {
		cb.trialing = false
		if tripped {
			cb.open()
		} else {
			cb.failures = 0
			cb.transition(CircuitClosed)
		}
		return
	}

	if !tripped {
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.failures >= cb.cfg.FailureThreshold {
		cb.open()
	}
}

func (cb *CircuitBreaker) open() {
	cb.openedAt = cb.now()
	cb.transition(CircuitOpen)
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}

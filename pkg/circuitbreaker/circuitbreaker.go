// Package circuitbreaker stops calling a failing dependency for a while
// and lets a few probe requests through before trusting it again.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota
	// StateOpen rejects requests until the cool-down elapses.
	StateOpen
	// StateHalfOpen lets a limited number of probes through.
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

var (
	// ErrCircuitOpen is returned while the circuit is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is used up.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Settings holds circuit breaker configuration.
type Settings struct {
	Name string

	// FailureThreshold is the consecutive failure count that opens the circuit. Default: 5
	FailureThreshold int

	// SuccessThreshold is the consecutive probe successes that close it again. Default: 2
	SuccessThreshold int

	// OpenTimeout is how long the circuit stays open. Default: 30s
	OpenTimeout time.Duration

	// HalfOpenProbes is the number of concurrent probes allowed. Default: 1
	HalfOpenProbes int

	// OnStateChange is called with the lock held; keep it cheap.
	OnStateChange func(name string, from, to State)

	// IsFailure filters which errors count. Nil counts every error.
	IsFailure func(error) bool

	now func() time.Time
}

// Option is a functional option for configuring the circuit breaker.
type Option func(*Settings)

// WithFailureThreshold sets the failure threshold.
func WithFailureThreshold(n int) Option {
	return func(s *Settings) {
		if n > 0 {
			s.FailureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the success threshold.
func WithSuccessThreshold(n int) Option {
	return func(s *Settings) {
		if n > 0 {
			s.SuccessThreshold = n
		}
	}
}

// WithTimeout sets how long the circuit stays open.
func WithTimeout(d time.Duration) Option {
	return func(s *Settings) {
		if d > 0 {
			s.OpenTimeout = d
		}
	}
}

// WithMaxHalfOpenRequests sets the half-open probe budget.
func WithMaxHalfOpenRequests(n int) Option {
	return func(s *Settings) {
		if n > 0 {
			s.HalfOpenProbes = n
		}
	}
}

// WithOnStateChange sets the state change callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(s *Settings) { s.OnStateChange = fn }
}

// WithIsFailure sets the failure filter.
func WithIsFailure(fn func(error) bool) Option {
	return func(s *Settings) { s.IsFailure = fn }
}

// WithClock overrides time.Now. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Settings) {
		if now != nil {
			s.now = now
		}
	}
}

// Counts holds request statistics since the last reset.
type Counts struct {
	Requests             int
	TotalSuccesses       int
	TotalFailures        int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	settings Settings

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probes   int
}

// New creates a new CircuitBreaker with the given name and options.
func New(name string, opts ...Option) *CircuitBreaker {
	s := Settings{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		HalfOpenProbes:   1,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &CircuitBreaker{settings: s}
}

// Execute runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.settings.now().Sub(cb.openedAt) < cb.settings.OpenTimeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probes = 1
		return nil
	case StateHalfOpen:
		if cb.probes >= cb.settings.HalfOpenProbes {
			return ErrTooManyRequests
		}
		cb.probes++
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.counts.Requests++
	if cb.state == StateHalfOpen && cb.probes > 0 {
		cb.probes--
	}

	failed := err != nil
	if failed && cb.settings.IsFailure != nil {
		failed = cb.settings.IsFailure(err)
	}

	if !failed {
		cb.counts.TotalSuccesses++
		cb.counts.ConsecutiveSuccesses++
		cb.counts.ConsecutiveFailures = 0
		if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.settings.SuccessThreshold {
			cb.transition(StateClosed)
		}
		return
	}

	cb.counts.TotalFailures++
	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0

	switch cb.state {
	case StateClosed:
		if cb.counts.ConsecutiveFailures >= cb.settings.FailureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.counts.ConsecutiveSuccesses = 0
	cb.counts.ConsecutiveFailures = 0
	cb.probes = 0
	if to == StateOpen {
		cb.openedAt = cb.settings.now()
	}
	if cb.settings.OnStateChange != nil {
		cb.settings.OnStateChange(cb.settings.Name, from, to)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a copy of the current counts.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the circuit and clears the counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.counts = Counts{}
	cb.probes = 0
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.settings.Name
}

// IsRejection reports whether err came from the breaker itself rather than
// from the protected call.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}

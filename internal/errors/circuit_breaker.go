package errors

import (
	"errors"
	"sync"
	"time"
)

const (
	ErrorThreshold      = 0.5
	MinRequests         = 10
	TimeoutDuration     = 30 * time.Second
	HalfOpenMaxRequests = 3
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

var (
	ErrCircuitOpen             = errors.New("circuit breaker is open")
	errHalfOpenTooManyRequests = errors.New("too many requests in half-open")
)

// BreakerOption tunes a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithOpenTimeout sets how long the breaker stays open before probing again.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.openTimeout = d
		}
	}
}

// WithMinRequests sets how many calls are observed before the error rate is evaluated.
func WithMinRequests(n int) BreakerOption {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.minRequests = n
		}
	}
}

// WithOnStateChange registers a callback invoked (under the breaker lock) on every transition.
func WithOnStateChange(fn func(from, to State)) BreakerOption {
	return func(cb *CircuitBreaker) {
		cb.onChange = fn
	}
}

type CircuitBreaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	requests        int
	lastFailureTime time.Time

	openTimeout time.Duration
	minRequests int
	onChange    func(from, to State)
	now         func() time.Time
}

func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:       StateClosed,
		openTimeout: TimeoutDuration,
		minRequests: MinRequests,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Call runs fn unless the breaker is open. Failures of fn are returned unchanged.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailureTime) < cb.openTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.setStateLocked(StateHalfOpen)
	}

	if cb.state == StateHalfOpen && cb.requests >= HalfOpenMaxRequests {
		cb.mu.Unlock()
		return errHalfOpenTooManyRequests
	}
	cb.requests++
	cb.mu.Unlock()

	callErr := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if callErr != nil {
		cb.failures++
		if cb.state == StateHalfOpen {
			cb.tripToOpenLocked()
		} else {
			cb.evaluateLocked()
		}
		return callErr
	}

	cb.successes++
	if cb.state == StateHalfOpen && cb.successes >= HalfOpenMaxRequests {
		cb.setStateLocked(StateClosed)
	}

	return nil
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) evaluateLocked() {
	if cb.requests < cb.minRequests {
		return
	}

	if float64(cb.failures)/float64(cb.requests) >= ErrorThreshold {
		cb.tripToOpenLocked()
	}
}

func (cb *CircuitBreaker) tripToOpenLocked() {
	cb.lastFailureTime = cb.now()
	cb.setStateLocked(StateOpen)
}

func (cb *CircuitBreaker) setStateLocked(next State) {
	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
	if prev != next && cb.onChange != nil {
		cb.onChange(prev, next)
	}
}

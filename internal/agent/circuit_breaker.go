package agent

import (
	"context"
	"errors"
	"sync"
	"time"
)

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
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

var ErrCircuitOpen = errors.New("circuit breaker разомкнут")

// CircuitBreaker перестаёт вызывать коллаборатора после maxFailures ошибок подряд
// и пробует снова через resetTimeout.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	state        CircuitState
	failures     int
	lastFailure  time.Time
	now          func() time.Time
	mu           sync.RWMutex
}

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	if resetTimeout == 0 {
		resetTimeout = 30 * time.Second
	}

	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
		now:          time.Now,
	}
}

func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
			cb.state = StateHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		// отмена контекста не считается отказом коллаборатора
		if errors.Is(err, context.Canceled) {
			return err
		}
		cb.failures++
		cb.lastFailure = cb.now()

		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}

		return err
	}

	cb.state = StateClosed
	cb.failures = 0

	return nil
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
}

type CircuitBreakerPool struct {
	maxFailures  int
	resetTimeout time.Duration
	breakers     map[string]*CircuitBreaker
	mu           sync.RWMutex
}

func NewCircuitBreakerPool(maxFailures int, resetTimeout time.Duration) *CircuitBreakerPool {
	return &CircuitBreakerPool{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		breakers:     make(map[string]*CircuitBreaker),
	}
}

func (pool *CircuitBreakerPool) Get(key string) *CircuitBreaker {
	pool.mu.RLock()
	if breaker, ok := pool.breakers[key]; ok {
		pool.mu.RUnlock()
		return breaker
	}
	pool.mu.RUnlock()

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if breaker, ok := pool.breakers[key]; ok {
		return breaker
	}

	breaker := NewCircuitBreaker(pool.maxFailures, pool.resetTimeout)
	pool.breakers[key] = breaker
	return breaker
}

func (pool *CircuitBreakerPool) ResetAll() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	for _, breaker := range pool.breakers {
		breaker.Reset()
	}
}

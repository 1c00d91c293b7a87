package resilience

import (
	"errors"
	"sync"
	"time"

	"health-concierge/backend/pkg/logger"
)

// ErrCircuitOpen is returned when the breaker short-circuits a request.
// Callers that have a degraded path (recency-only context, apology reply)
// should check for it with errors.Is.
var ErrCircuitOpen = errors.New("circuit open")

// CircuitBreakerState is one of closed, open or half-open
type CircuitBreakerState string

const (
	StateClosed   CircuitBreakerState = "closed"
	StateOpen     CircuitBreakerState = "open"
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig tunes one breaker instance
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
}

// DefaultCircuitBreakerConfig returns the thresholds used for the oracle
// and similarity upstreams: open after 5 straight failures, probe again
// after a minute, close after 2 probe successes.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     60 * time.Second,
	}
}

// CircuitBreaker guards an outbound dependency so a struggling upstream
// does not stall every chat turn. While open, calls fail fast with
// ErrCircuitOpen until the retry timeout elapses; the half-open state
// lets a few probes through before fully closing again.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	log *logger.Logger

	mu              sync.Mutex
	state           CircuitBreakerState
	failures        uint
	probeSuccesses  uint
	nextAttemptTime time.Time
	opened          uint64
	requests        uint64
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(cfg CircuitBreakerConfig, log *logger.Logger) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, log: log, state: StateClosed}
}

// Execute runs fn unless the circuit is open, recording the outcome
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		cb.log.Warn("Circuit breaker preventing request", "name", cb.cfg.Name)
		return ErrCircuitOpen
	}

	start := time.Now()
	if err := fn(); err != nil {
		cb.onFailure()
		cb.log.Warn("Circuit breaker recorded failure",
			"name", cb.cfg.Name,
			"error", err.Error(),
			"duration", time.Since(start).String(),
		)
		return err
	}

	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.requests++
		return true

	case StateOpen:
		if time.Now().After(cb.nextAttemptTime) {
			cb.state = StateHalfOpen
			cb.probeSuccesses = 0
			cb.log.Info("Circuit breaker half-open", "name", cb.cfg.Name)
			cb.requests++
			return true
		}
		return false

	case StateHalfOpen:
		if cb.probeSuccesses < cb.cfg.SuccessThreshold {
			cb.requests++
			return true
		}
		return false
	}
	return false
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probeSuccesses++
		if cb.probeSuccesses >= cb.cfg.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.log.Info("Circuit breaker closed", "name", cb.cfg.Name)
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.open()
		}
	case StateHalfOpen:
		// One failed probe reopens the circuit
		cb.open()
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.opened++
	cb.nextAttemptTime = time.Now().Add(cb.cfg.RetryTimeout)
	cb.log.Info("Circuit breaker opened",
		"name", cb.cfg.Name,
		"failures", cb.failures,
		"nextAttempt", cb.nextAttemptTime.Format(time.RFC3339),
	)
}

// GetState returns the breaker's current state
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetMetrics reports lifetime counters for diagnostics
func (cb *CircuitBreaker) GetMetrics() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"name":               cb.cfg.Name,
		"state":              string(cb.state),
		"total_requests":     cb.requests,
		"open_circuit_count": cb.opened,
	}
}

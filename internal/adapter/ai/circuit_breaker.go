// Package ai holds generator decorators shared by every backend: a circuit
// breaker that fails fast while the upstream is down and a throttle drawing
// from the shared Redis token bucket.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	// CircuitClosed lets requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests until the recovery timeout passes.
	CircuitOpen
	// CircuitHalfOpen lets a single probe through.
	CircuitHalfOpen
)

func (cs CircuitState) String() string {
	switch cs {
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

// CircuitBreaker wraps a generator and stops calling it after
// failureThreshold consecutive failures. Callers get ErrUpstreamTimeout
// immediately while the circuit is open, so classifier call sites fall back
// to their defaults without waiting on retries.
type CircuitBreaker struct {
	next             domain.Generator
	failureThreshold int
	recoveryTimeout  time.Duration
	now              func() time.Time

	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	lastFailureTime time.Time
	probing         bool
}

// NewCircuitBreaker opens after threshold consecutive failures and probes
// again after recovery.
func NewCircuitBreaker(next domain.Generator, threshold int, recovery time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 3
	}
	if recovery <= 0 {
		recovery = 30 * time.Second
	}
	return &CircuitBreaker{
		next:             next,
		failureThreshold: threshold,
		recoveryTimeout:  recovery,
		now:              time.Now,
		state:            CircuitClosed,
	}
}

// Complete forwards to the wrapped generator unless the circuit is open.
func (cb *CircuitBreaker) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	if !cb.shouldAttempt() {
		return "", fmt.Errorf("op=ai.CircuitBreaker: %w: circuit open", domain.ErrUpstreamTimeout)
	}
	out, err := cb.next.Complete(ctx, messages)
	if err != nil && ctx.Err() == nil {
		cb.recordFailure()
		return "", err
	}
	if err != nil {
		cb.release()
		return "", err
	}
	cb.recordSuccess()
	return out, nil
}

func (cb *CircuitBreaker) shouldAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.recoveryTimeout {
			return false
		}
		cb.state = CircuitHalfOpen
		cb.probing = true
		return true
	default:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
	cb.probing = false
	if cb.state != CircuitClosed {
		cb.state = CircuitClosed
		slog.Info("generator circuit closed after successful probe")
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount++
	cb.lastFailureTime = cb.now()
	cb.probing = false
	if cb.state == CircuitHalfOpen || cb.failureCount >= cb.failureThreshold {
		if cb.state != CircuitOpen {
			slog.Warn("generator circuit opened",
				slog.Int("failure_count", cb.failureCount),
				slog.Int("threshold", cb.failureThreshold))
		}
		cb.state = CircuitOpen
	}
}

// release frees a half-open probe slot after a cancelled call.
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

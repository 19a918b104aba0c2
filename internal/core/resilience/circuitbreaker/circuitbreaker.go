// Package circuitbreaker implements the per-external-service circuit
// breaker contract of this: should_allow/record_success/record_failure
// gate calls to an upstream, tripping Open after consecutive failures and
// probing recovery through a bounded HalfOpen window.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is one of the three circuit breaker modes. Exactly one state holds
// at any time; transitions are totally ordered by wall clock.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config tunes a breaker's thresholds. Zero values fall back to defaults.
type Config struct {
	FailureThreshold    int           // consecutive failures before Open
	SuccessThreshold    int           // consecutive HalfOpen successes before Closed
	RecoveryTimeout     time.Duration // time spent Open before probing
	HalfOpenMaxRequests int           // concurrent probes allowed while HalfOpen
	OnStateChange       func(from, to State)
	Clock               func() time.Time
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxRequests <= 0 {
		c.HalfOpenMaxRequests = 1
	}
	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}
	return c
}

// CircuitBreaker guards a single external service. All methods are safe for
// concurrent use; state transitions are atomic under a single mutex so the
// mode and its counters are never observed in an inconsistent combination.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg Config

	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	halfOpenInFlight     int
	openedAt             time.Time
}

// New constructs a breaker starting Closed.
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg.withDefaults(), state: Closed}
}

// State reports the current mode, applying the lazy Open->HalfOpen
// transition first (so it can itself move the breaker to HalfOpen and fire
// OnStateChange) so callers observing state see the same mode ShouldAllow
// would act on. It reserves no half-open probe slot.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeEnterHalfOpen()
	return cb.state
}

// ShouldAllow reports whether a call may proceed: true in Closed, true in
// HalfOpen while under the concurrent-probe limit, false otherwise. Calling
// it is also what lazily flips Open to HalfOpen once recovery_timeout has
// elapsed since the breaker opened.
func (cb *CircuitBreaker) ShouldAllow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.maybeEnterHalfOpen()

	switch cb.state {
	case Closed:
		return true
	case HalfOpen:
		if cb.halfOpenInFlight >= cb.cfg.HalfOpenMaxRequests {
			return false
		}
		cb.halfOpenInFlight++
		return true
	default: // Open
		return false
	}
}

// maybeEnterHalfOpen must be called with mu held.
func (cb *CircuitBreaker) maybeEnterHalfOpen() {
	if cb.state != Open {
		return
	}
	if cb.cfg.Clock().Sub(cb.openedAt) >= cb.cfg.RecoveryTimeout {
		cb.transitionTo(HalfOpen)
	}
}

// RecordSuccess reports a successful call. In Closed it resets the failure
// streak; in HalfOpen it counts toward success_threshold and, once
// reached, closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		cb.consecutiveFailures = 0
	case HalfOpen:
		cb.consecutiveSuccesses++
		if cb.halfOpenInFlight > 0 {
			cb.halfOpenInFlight--
		}
		if cb.consecutiveSuccesses >= cb.cfg.SuccessThreshold {
			cb.transitionTo(Closed)
		}
	}
}

// RecordFailure reports a failed call. In Closed it counts toward
// failure_threshold and opens once reached. In HalfOpen any single failure
// reopens immediately — a probe failing means the upstream has not
// recovered.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.transitionTo(Open)
		}
	case HalfOpen:
		if cb.halfOpenInFlight > 0 {
			cb.halfOpenInFlight--
		}
		cb.transitionTo(Open)
	}
}

// Reset forces Closed regardless of current state — an administrative
// override, not part of the normal transition graph.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(Closed)
}

// transitionTo must be called with mu held.
func (cb *CircuitBreaker) transitionTo(next State) {
	prev := cb.state
	cb.state = next
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
	cb.halfOpenInFlight = 0
	if next == Open {
		cb.openedAt = cb.cfg.Clock()
	}
	if prev != next && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(prev, next)
	}
}

package resilience

import (
	"sync"
	"time"
)

// State is the position of a Breaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota

	// StateOpen rejects calls until the open timeout elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
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

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed while
	// half-open and the number of consecutive probe successes that close it.
	HalfOpenLimit int
}

// Breaker is a consecutive-failure circuit breaker.
//
// State transitions:
//   - Closed → Open: after MaxFailures consecutive failures
//   - Open → HalfOpen: on the first call after Timeout
//   - HalfOpen → Closed: after HalfOpenLimit consecutive successes
//   - HalfOpen → Open: on any failure
type Breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	state     State
	failures  int
	successes int
	probes    int
	openedAt  time.Time
	now       func() time.Time
	onChange  func(from, to State)
}

// NewBreaker creates a closed breaker. Non-positive limits are raised to 1.
func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.HalfOpenLimit = max(cfg.HalfOpenLimit, 1)

	return &Breaker{
		cfg: cfg,
		now: time.Now,
	}
}

// OnStateChange registers fn to be called after every transition. fn runs
// outside the breaker lock on the goroutine that caused the transition.
func (b *Breaker) OnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.onChange = fn
}

// Allow reports whether a call may proceed. Every allowed call must be
// followed by exactly one of Success, Failure or Release.
func (b *Breaker) Allow() bool {
	b.mu.Lock()

	var (
		allowed bool
		from    State
		changed bool
	)

	switch b.state {
	case StateClosed:
		allowed = true

	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.Timeout {
			from, changed = b.transition(StateHalfOpen)
			b.probes = 1
			allowed = true
		}

	case StateHalfOpen:
		if b.probes < b.cfg.HalfOpenLimit {
			b.probes++
			allowed = true
		}
	}

	b.unlockAndNotify(from, changed)

	return allowed
}

// Success records a call that completed without an infrastructure fault.
func (b *Breaker) Success() {
	b.mu.Lock()

	var (
		from    State
		changed bool
	)

	switch b.state {
	case StateClosed:
		b.failures = 0

	case StateHalfOpen:
		b.probes = max(b.probes-1, 0)
		b.successes++

		if b.successes >= b.cfg.HalfOpenLimit {
			from, changed = b.transition(StateClosed)
		}
	}

	b.unlockAndNotify(from, changed)
}

// Failure records an infrastructure fault.
func (b *Breaker) Failure() {
	b.mu.Lock()

	var (
		from    State
		changed bool
	)

	switch b.state {
	case StateClosed:
		b.failures++

		if b.failures >= b.cfg.MaxFailures {
			from, changed = b.transition(StateOpen)
		}

	case StateHalfOpen:
		b.probes = max(b.probes-1, 0)
		from, changed = b.transition(StateOpen)
	}

	b.unlockAndNotify(from, changed)
}

// Release returns an allowed call's slot without judging the store, for
// calls abandoned by their caller.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probes = max(b.probes-1, 0)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// transition moves to next and resets the counters. Caller holds the lock.
func (b *Breaker) transition(next State) (State, bool) {
	prev := b.state
	if prev == next {
		return prev, false
	}

	b.state = next
	b.failures = 0
	b.successes = 0

	if next == StateOpen {
		b.openedAt = b.now()
		b.probes = 0
	}

	return prev, true
}

func (b *Breaker) unlockAndNotify(from State, changed bool) {
	to := b.state
	fn := b.onChange
	b.mu.Unlock()

	if changed && fn != nil {
		fn(from, to)
	}
}

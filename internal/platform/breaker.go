package platform

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed   breakerState = iota // normal operation
	breakerOpen                         // backend failing, calls skipped
	breakerHalfOpen                     // probing for recovery
)

// Breaker tracks consecutive failures per operation class and stops
// hitting a backend that keeps failing. An open circuit produces the
// same reported-empty result at the adapter boundary as a transport
// failure would.
type Breaker struct {
	mu          sync.Mutex
	failures    map[string]int
	lastFailure map[string]time.Time
	state       map[string]breakerState

	threshold    int
	openDuration time.Duration
}

// NewBreaker returns a breaker that opens after three consecutive
// failures and stays open for five minutes before probing again.
func NewBreaker() *Breaker {
	return &Breaker{
		failures:     make(map[string]int),
		lastFailure:  make(map[string]time.Time),
		state:        make(map[string]breakerState),
		threshold:    3,
		openDuration: 5 * time.Minute,
	}
}

// Allow reports whether a call for the given operation class should be
// attempted. An expired open circuit transitions to half-open and
// allows a single probe through.
func (b *Breaker) Allow(op string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state[op] {
	case breakerClosed, breakerHalfOpen:
		return true
	case breakerOpen:
		if time.Since(b.lastFailure[op]) > b.openDuration {
			b.state[op] = breakerHalfOpen
			return true
		}
		return false
	}
	return true
}

// Success records a successful call, closing the circuit.
func (b *Breaker) Success(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = 0
	b.state[op] = breakerClosed
}

// Failure records a failed call. A half-open probe failure reopens the
// circuit immediately; otherwise the circuit opens once the consecutive
// failure count reaches the threshold.
func (b *Breaker) Failure(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure[op] = time.Now()
	if b.state[op] == breakerHalfOpen {
		b.state[op] = breakerOpen
		return
	}
	b.failures[op]++
	if b.failures[op] >= b.threshold {
		b.state[op] = breakerOpen
	}
}

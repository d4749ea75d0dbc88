package platform

import "errors"

var (
	// ErrUnknownPlatform is returned when no adapter is registered under
	// the requested name.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrCircuitOpen is returned by adapter transports when the circuit
	// breaker is refusing calls for an operation class.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidURL is returned when the submitted URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")

	// ErrQueueFull is returned when the processing queue has no capacity left.
	ErrQueueFull = errors.New("processing queue is full, try again later")

	// ErrTerminalState is returned when a transition is attempted on a job
	// that already reached DONE or FAILED.
	ErrTerminalState = errors.New("job already reached a terminal state")

	// ErrStoreUnavailable is returned when the state store is unreachable.
	ErrStoreUnavailable = errors.New("state store is currently unavailable")
)

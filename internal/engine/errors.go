package engine

import "errors"

var (
	// ErrDataUnavailable is returned when a snapshot cannot be fetched or is empty.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrExecutionFailed is returned when a buy or sell fails.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrPersistence is returned when a persistence write fails.
	ErrPersistence = errors.New("persistence failed")
)

package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval is returned when the engine is constructed with a poll
// interval outside the configured bounds.
var ErrInvalidInterval = errors.New("invalid poll interval")

// RetryExhaustedError reports a run of consecutive poll failures. The engine
// keeps running after logging it — a notifier that silently dies is worse
// than one that spins — so this surfaces only in logs and tests.
type RetryExhaustedError struct {
	Attempts uint32
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("engine: %d consecutive poll failures: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

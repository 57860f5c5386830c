package notify

import "errors"

// Sentinel errors for the dispatch layer.
var (
	// ErrSend wraps a sink delivery failure.
	ErrSend = errors.New("notification send error")

	// ErrCreation wraps a failure to construct a sink backend.
	ErrCreation = errors.New("notification creation error")
)

package repositories

import "errors"

// ErrNotFound is returned when the requested notification does not exist.
// Callers check it with errors.Is to distinguish missing records from other
// database errors.
var ErrNotFound = errors.New("record not found")

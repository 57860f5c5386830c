package notify

import (
	"fmt"

	"go.uber.org/zap"
)

// Flags carries per-send options.
type Flags struct {
	// Persistent asks the platform to keep the notification on screen until
	// dismissed. Sinks that cannot honor it must still succeed.
	Persistent bool
}

// Sink is the capability a dispatch backend implements. Send delivers one
// rendered notification; Name identifies the sink in logs;
// SupportsPersistent reports whether the Persistent flag has any effect.
type Sink interface {
	Send(title, body, url string, flags Flags) error
	Name() string
	SupportsPersistent() bool
}

// NewSink constructs the sink selected by name: "desktop" (default), "log"
// or "dummy".
func NewSink(name string, logger *zap.Logger) (Sink, error) {
	switch name {
	case "desktop", "":
		return NewDesktopSink(), nil
	case "log":
		return NewLogSink(logger), nil
	case "dummy":
		return NewDummySink(), nil
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", ErrCreation, name)
	}
}

package notify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gh-notifier/gh-notifier/internal/db"
)

// Dispatcher hands stored notifications to the configured sink. It is the
// single path from the engine to the user; sink failures are reported to the
// caller, which logs and continues — a failed alert never stops the loop.
type Dispatcher struct {
	sink       Sink
	persistent bool
	logger     *zap.Logger
}

// NewDispatcher creates a Dispatcher. persistent requests non-auto-dismiss
// notifications from sinks that support it.
func NewDispatcher(sink Sink, persistent bool, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sink:       sink,
		persistent: persistent,
		logger:     logger.Named("dispatch"),
	}
}

// Sink exposes the underlying sink, mainly for the info command.
func (d *Dispatcher) Sink() Sink { return d.sink }

// Dispatch sends one stored notification through the sink.
func (d *Dispatcher) Dispatch(n *db.Notification) error {
	return d.send(n.Title, n)
}

// DispatchRecovery re-sends a notification surfaced by startup recovery,
// with the recovery marker appended to the title.
func (d *Dispatcher) DispatchRecovery(n *db.Notification) error {
	return d.send(n.Title+" - Recovery", n)
}

func (d *Dispatcher) send(title string, n *db.Notification) error {
	err := d.sink.Send(title, n.Body, n.URL, Flags{Persistent: d.persistent})
	if err != nil {
		return fmt.Errorf("dispatch %s via %s: %w", n.ID, d.sink.Name(), err)
	}
	d.logger.Debug("notification dispatched",
		zap.String("id", n.ID),
		zap.String("sink", d.sink.Name()),
	)
	return nil
}

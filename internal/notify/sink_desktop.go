package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// DesktopSink delivers notifications through the platform notification
// facility (notify-send/D-Bus on Linux, toast on Windows, osascript on
// macOS) via beeep.
type DesktopSink struct {
	// notify is swappable for tests; defaults to beeep.Notify.
	notify func(title, message, appIcon string) error
}

// NewDesktopSink creates a desktop sink.
func NewDesktopSink() *DesktopSink {
	return &DesktopSink{notify: beeep.Notify}
}

// Send shows a desktop alert. The URL is appended to the body — beeep has no
// click-action support, so the link travels in the text. The Persistent flag
// is not honored by beeep; delivery still succeeds, per the sink contract.
func (s *DesktopSink) Send(title, body, url string, flags Flags) error {
	message := body
	if url != "" {
		message = body + "\n" + url
	}
	if err := s.notify(title, message, ""); err != nil {
		return fmt.Errorf("%w: desktop: %s", ErrSend, err)
	}
	return nil
}

func (s *DesktopSink) Name() string { return "desktop" }

func (s *DesktopSink) SupportsPersistent() bool { return false }

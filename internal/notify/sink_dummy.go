package notify

import "sync"

// SentNotification records one Send call on a DummySink.
type SentNotification struct {
	Title string
	Body  string
	URL   string
	Flags Flags
}

// DummySink records sends without delivering anything. It backs tests and
// the engine's dry-run mode.
type DummySink struct {
	mu   sync.Mutex
	sent []SentNotification

	// FailNext makes the next Send return ErrSend, for failure-path tests.
	FailNext bool
}

// NewDummySink creates a dummy sink.
func NewDummySink() *DummySink {
	return &DummySink{}
}

func (s *DummySink) Send(title, body, url string, flags Flags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return ErrSend
	}
	s.sent = append(s.sent, SentNotification{Title: title, Body: body, URL: url, Flags: flags})
	return nil
}

func (s *DummySink) Name() string { return "dummy" }

func (s *DummySink) SupportsPersistent() bool { return true }

// Sent returns a copy of everything recorded so far.
func (s *DummySink) Sent() []SentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentNotification, len(s.sent))
	copy(out, s.sent)
	return out
}

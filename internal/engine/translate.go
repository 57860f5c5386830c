package engine

import (
	"time"

	"github.com/gh-notifier/gh-notifier/internal/db"
	"github.com/gh-notifier/gh-notifier/internal/github"
	"github.com/gh-notifier/gh-notifier/internal/notify"
)

// translate converts a raw inbox item into its stored form. Rendering
// happens here, once: the stored title/body/url are what the user sees now
// and what recovery replays later. received_at records first observation —
// deliberately not the remote's updated_at, because a remote mutation of a
// known thread is not a new notification.
//
// An item already read on arrival stores its marked_read_at too (the
// remote's last_read_at, else received_at), keeping the read-state
// invariant intact and the row reachable by retention.
func translate(raw github.Notification, now time.Time) db.Notification {
	rendered := notify.Render(raw, now)
	received := now.UTC().Format(time.RFC3339)

	n := db.Notification{
		ID:          raw.ID,
		Title:       rendered.Title,
		Body:        rendered.Body,
		URL:         rendered.URL,
		Repository:  raw.Repository.FullName,
		Reason:      string(github.NormalizeReason(raw.Reason)),
		SubjectType: raw.Subject.Type,
		IsRead:      !raw.Unread,
		ReceivedAt:  received,
	}
	if !raw.Unread {
		markedAt := received
		if raw.LastReadAt != nil && *raw.LastReadAt != "" {
			markedAt = *raw.LastReadAt
		}
		n.MarkedReadAt = &markedAt
	}
	return n
}

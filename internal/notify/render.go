// Package notify renders stored notifications into a user-facing
// (title, body, url) tuple and hands them to a pluggable sink. Rendering
// happens once, at translation time, so the stored presentation is exactly
// what the user saw first; dispatch and startup recovery replay it verbatim.
package notify

import (
	"fmt"
	"time"

	"github.com/gh-notifier/gh-notifier/internal/github"
)

// reasonDisplay is the fixed mapping from a notification reason to its
// human rendering. Unknown reasons pass through as the raw string.
var reasonDisplay = map[string]string{
	"assign":           "assigned you",
	"author":           "activity on your thread",
	"comment":          "new comment",
	"invitation":       "invited you",
	"manual":           "subscribed manually",
	"mention":          "mentioned you",
	"review_requested": "_Review Requested_",
	"security_alert":   "security alert",
	"state_change":     "state changed",
	"subscribed":       "subscription update",
	"team_mention":     "team mentioned",
}

// Rendered is the presentation of one notification.
type Rendered struct {
	Title string
	Body  string
	URL   string
}

// Render produces the presentation tuple for a raw notification:
//
//	title = "{repo} - {reason_display}"      (🔒 prefix for private repos)
//	body  = "{subject_title}\n\n{repo} | {kind_display} | Updated: {time_ago}"
//	url   = subject URL, falling back to the thread API URL
func Render(n github.Notification, now time.Time) Rendered {
	repo := n.Repository.FullName
	decorated := repo
	if n.Repository.Private {
		decorated = "🔒 " + repo
	}

	reason := n.Reason
	if display, ok := reasonDisplay[reason]; ok {
		reason = display
	}

	url := n.Subject.URL
	if url == "" {
		url = n.URL
	}

	return Rendered{
		Title: fmt.Sprintf("%s - %s", decorated, reason),
		Body: fmt.Sprintf("%s\n\n%s | %s | Updated: %s",
			n.Subject.Title, repo, subjectKindDisplay(n.Subject.Type),
			timeAgo(n.UpdatedAtTime(), now)),
		URL: url,
	}
}

// subjectKindDisplay maps wire subject kinds to their display form.
// Only PullRequest needs rewording; everything else passes through.
func subjectKindDisplay(kind string) string {
	if kind == "PullRequest" {
		return "Pull Request"
	}
	return kind
}

// timeAgo renders a human-relative timestamp: "just now" under a minute,
// then minute/hour/day buckets, and a localized month-day form past a week.
func timeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		// Past a week an absolute date reads better than "53d ago".
		// Rendering (unlike persistence) uses local time.
		return t.Local().Format("Jan 02")
	}
}

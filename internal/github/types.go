package github

import "time"

// Reason is the closed set of notification reasons the remote emits.
// Unrecognized values normalize to ReasonUnknown while keeping the raw
// string available through the notification itself.
type Reason string

const (
	ReasonAssign          Reason = "assign"
	ReasonAuthor          Reason = "author"
	ReasonComment         Reason = "comment"
	ReasonInvitation      Reason = "invitation"
	ReasonManual          Reason = "manual"
	ReasonMention         Reason = "mention"
	ReasonReviewRequested Reason = "review_requested"
	ReasonSecurityAlert   Reason = "security_alert"
	ReasonStateChange     Reason = "state_change"
	ReasonSubscribed      Reason = "subscribed"
	ReasonTeamMention     Reason = "team_mention"
	ReasonUnknown         Reason = "unknown"
)

// knownReasons indexes the closed reason set for normalization.
var knownReasons = map[Reason]struct{}{
	ReasonAssign: {}, ReasonAuthor: {}, ReasonComment: {}, ReasonInvitation: {},
	ReasonManual: {}, ReasonMention: {}, ReasonReviewRequested: {},
	ReasonSecurityAlert: {}, ReasonStateChange: {}, ReasonSubscribed: {},
	ReasonTeamMention: {},
}

// NormalizeReason maps a raw reason string into the closed set.
func NormalizeReason(raw string) Reason {
	r := Reason(raw)
	if _, ok := knownReasons[r]; ok {
		return r
	}
	return ReasonUnknown
}

// Subject is the nested subject object on a notification thread.
type Subject struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"` // "Issue", "PullRequest", "Commit", "Release", ...
}

// Repository is the subset of the nested repository object the daemon uses.
type Repository struct {
	FullName string `json:"full_name"` // "owner/repo"
	Private  bool   `json:"private"`
	Fork     bool   `json:"fork"`
	HTMLURL  string `json:"html_url"`
}

// Notification is one raw inbox item as returned by GET /notifications.
// The thread ID is an opaque string, stable across polls; UpdatedAt is
// RFC3339 UTC on the wire.
type Notification struct {
	ID         string     `json:"id"`
	Unread     bool       `json:"unread"`
	Reason     string     `json:"reason"`
	UpdatedAt  string     `json:"updated_at"`
	LastReadAt *string    `json:"last_read_at"`
	Subject    Subject    `json:"subject"`
	Repository Repository `json:"repository"`
	URL        string     `json:"url"` // API URL of the thread
}

// Organization derives the owner prefix of the repository full name.
// Returns "" when the name carries no slash.
func (n Notification) Organization() string {
	for i := 0; i < len(n.Repository.FullName); i++ {
		if n.Repository.FullName[i] == '/' {
			return n.Repository.FullName[:i]
		}
	}
	return ""
}

// UpdatedAtTime parses UpdatedAt, returning the zero time on malformed input.
func (n Notification) UpdatedAtTime() time.Time {
	t, err := time.Parse(time.RFC3339, n.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RateLimit is the advisory core rate limit snapshot from GET /rate_limit.
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // epoch seconds
}

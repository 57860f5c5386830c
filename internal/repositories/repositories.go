// Package repositories defines the data-access layer over the notification
// store. The NotificationRepository interface is the only way the rest of
// the daemon touches the notifications table; the sync engine, the control
// API and the CLI all share one implementation bound to the single SQLite
// connection, which serializes their access.
package repositories

// HistoryQuery narrows a history listing. Zero values mean "no constraint".
// Since and Until are RFC3339 strings compared against received_at — valid
// because every stored timestamp is UTC-normalized, so lexicographic order
// is chronological.
type HistoryQuery struct {
	Unread      bool   // only unread rows
	Read        bool   // only read rows
	Repository  string // exact "owner/repo" match
	Reason      string
	SubjectType string
	Since       string
	Until       string
	Limit       int
}

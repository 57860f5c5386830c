package db

// Notification is one observed inbox item in its local stored form. Title,
// Body and URL hold the rendered presentation produced at translation time,
// so dispatch and startup recovery send exactly what was first observed.
//
// Timestamps are RFC3339 UTC strings (TEXT columns): lexicographic order
// equals chronological order, which keeps received_at DESC queries and the
// engine's max-updated_at tie-break honest without parsing.
//
// Invariants: ID (the remote thread id) is the primary key; ReceivedAt is
// frozen on insert and never mutated; IsRead implies MarkedReadAt is set.
type Notification struct {
	ID           string  `gorm:"primaryKey" json:"id"`
	Title        string  `gorm:"not null" json:"title"`
	Body         string  `gorm:"not null" json:"body"`
	URL          string  `gorm:"not null" json:"url"`
	Repository   string  `gorm:"not null" json:"repository"`
	Reason       string  `gorm:"not null" json:"reason"`
	SubjectType  string  `gorm:"column:subject_type;not null" json:"subject_type"`
	IsRead       bool    `gorm:"not null;default:false" json:"is_read"`
	ReceivedAt   string  `gorm:"not null" json:"received_at"`
	MarkedReadAt *string `json:"marked_read_at"`
}

// TableName pins the table name to the migrated schema.
func (Notification) TableName() string {
	return "notifications"
}

// Package state persists the sync cursor: the last-seen timestamp and the
// per-URL cache validators used to make polls conditional. The state is one
// JSON document, loaded once at startup and rewritten atomically only after
// a successful poll that produced new items. A crash between persistence
// points yields at-most-duplicate notifications on the next run; duplicates
// are suppressed downstream by the store's upsert-if-new.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "state.json"

// document is the on-disk shape:
//
//	{"last_checked_at": string|null, "etags": {url: etag, ...}}
type document struct {
	LastCheckedAt *string           `json:"last_checked_at"`
	ETags         map[string]string `json:"etags"`
}

// SyncState holds the in-memory cursor. It is owned exclusively by the sync
// engine and is not safe for concurrent use.
type SyncState struct {
	path string
	doc  document
}

// Load reads the state document from configDir, returning empty state when
// the file does not exist yet.
func Load(configDir string) (*SyncState, error) {
	s := &SyncState{
		path: filepath.Join(configDir, fileName),
		doc:  document{ETags: map[string]string{}},
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("state: read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", s.path, err)
	}
	if s.doc.ETags == nil {
		s.doc.ETags = map[string]string{}
	}
	return s, nil
}

// LastCheckedAt returns the persisted cursor timestamp, "" when unset.
func (s *SyncState) LastCheckedAt() string {
	if s.doc.LastCheckedAt == nil {
		return ""
	}
	return *s.doc.LastCheckedAt
}

// SetLastCheckedAt updates the in-memory cursor. Persist makes it durable.
func (s *SyncState) SetLastCheckedAt(ts string) {
	s.doc.LastCheckedAt = &ts
}

// ETag returns the cache validator recorded for url, "" when absent.
func (s *SyncState) ETag(url string) string {
	return s.doc.ETags[url]
}

// SetETag records the cache validator for url.
func (s *SyncState) SetETag(url, etag string) {
	s.doc.ETags[url] = etag
}

// Persist writes the document atomically: a temp file in the same directory
// is renamed over the target so readers never observe a torn write.
func (s *SyncState) Persist() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("state: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("state: rename %s: %w", tmp, err)
	}
	return nil
}

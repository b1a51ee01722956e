package models

import "time"

// HistorySource names the side that authored a recorded mutation.
type HistorySource string

const (
	HistorySourceLocal  HistorySource = "local"
	HistorySourceRemote HistorySource = "remote"
)

// HistoryRecord is an immutable before/after snapshot pair. BeforeJSON is
// "null" for the record written when an entry is created.
type HistoryRecord struct {
	ID         string        `json:"id"`
	EntryID    string        `json:"entry_id"`
	Source     HistorySource `json:"source"`
	BeforeJSON string        `json:"before_json"`
	AfterJSON  string        `json:"after_json"`
	CreatedAt  time.Time     `json:"created_at"`
}

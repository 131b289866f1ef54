package journal

import "time"

// EntryID identifier type
type EntryID string

// Entry records one analysed file for operators.
type Entry struct {
	ID        EntryID   `json:"id"`
	SourceURL string    `json:"blob_url"`
	Kind      string    `json:"type"`
	Summary   string    `json:"summary"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

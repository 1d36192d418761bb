// Package domain holds the shared types exchanged between the statement
// pipeline, the persistence layer, and the API.
package domain

import "time"

// Category is one entry of the caller's category catalog.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommittedTransaction is a persisted transaction record as held by the
// transaction store. The pipeline only ever reads these for duplicate
// detection and writes them on commit.
type CommittedTransaction struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"category_id,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// PreviewTransaction is the unit shown to the human reviewer. It is never
// persisted; the reviewer edits or drops rows and submits the result to the
// commit endpoint.
type PreviewTransaction struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	CategoryID  string  `json:"category_id,omitempty"`
	IsDuplicate bool    `json:"is_duplicate"`
}

// StatementRecord is the append-only audit row written once per successful
// commit. It is never updated afterwards.
type StatementRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	AccountID        string    `json:"account_id"`
	FileName         string    `json:"file_name"`
	FileRef          string    `json:"file_ref"`
	FileType         string    `json:"file_type"`
	TransactionCount int       `json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
}

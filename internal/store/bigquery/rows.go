package bigquery

import (
	"time"

	"cloud.google.com/go/civil"
)

// CategoryRow is one row of the categories table.
type CategoryRow struct {
	CategoryID string `bigquery:"category_id"`
	UserID     string `bigquery:"user_id"`
	Name       string `bigquery:"category_name"`
	IsActive   bool   `bigquery:"is_active"`
}

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	TransactionID string     `bigquery:"transaction_id"`
	AccountID     string     `bigquery:"account_id"`
	Date          civil.Date `bigquery:"transaction_date"`
	Description   string     `bigquery:"description"`
	Amount        float64    `bigquery:"amount"`
	CategoryID    string     `bigquery:"category_id"`
	Notes         string     `bigquery:"notes"`
	CreatedTS     time.Time  `bigquery:"created_ts"`
}

// StatementRow is one row of the statements audit table. Rows are inserted
// once per successful commit and never updated.
type StatementRow struct {
	StatementID      string    `bigquery:"statement_id"`
	UserID           string    `bigquery:"user_id"`
	AccountID        string    `bigquery:"account_id"`
	FileName         string    `bigquery:"file_name"`
	FileRef          string    `bigquery:"file_ref"`
	FileType         string    `bigquery:"file_type"`
	TransactionCount int64     `bigquery:"transaction_count"`
	CreatedTS        time.Time `bigquery:"created_ts"`
}

package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/mlipovsky/homebudget/internal/domain"
)

// ListRecent returns up to limit committed transactions for the account,
// newest first. The pipeline uses this bounded window to build its
// duplicate fingerprint set.
func (s *Store) ListRecent(ctx context.Context, accountID string, limit int) ([]domain.CommittedTransaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
		  transaction_id,
		  account_id,
		  transaction_date,
		  description,
		  amount,
		  category_id,
		  notes,
		  created_ts
		FROM %s
		WHERE account_id = @account_id
		ORDER BY transaction_date DESC, created_ts DESC
		LIMIT @row_limit
	`, s.qualified(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "row_limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: query read: %w", err)
	}

	var out []domain.CommittedTransaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecent: iter next: %w", err)
		}
		out = append(out, domain.CommittedTransaction{
			Date:        r.Date.String(),
			Description: r.Description,
			Amount:      r.Amount,
			CategoryID:  r.CategoryID,
			Notes:       r.Notes,
		})
	}
	return out, nil
}

// BulkInsert streams a reviewed batch into the transactions table.
func (s *Store) BulkInsert(ctx context.Context, accountID string, txs []domain.CommittedTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		date, err := civil.ParseDate(tx.Date)
		if err != nil {
			return fmt.Errorf("BulkInsert: invalid date %q: %w", tx.Date, err)
		}
		rows = append(rows, &TransactionRow{
			TransactionID: uuid.NewString(),
			AccountID:     accountID,
			Date:          date,
			Description:   tx.Description,
			Amount:        tx.Amount,
			CategoryID:    tx.CategoryID,
			Notes:         tx.Notes,
			CreatedTS:     now,
		})
	}

	if err := s.table(transactionsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("BulkInsert: inserting rows: %w", err)
	}
	return nil
}

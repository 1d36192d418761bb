package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/mlipovsky/homebudget/internal/domain"
)

// CreateRecord inserts one statement audit row and returns its ID.
func (s *Store) CreateRecord(ctx context.Context, rec *domain.StatementRecord) (string, error) {
	statementID := uuid.NewString()
	row := &StatementRow{
		StatementID:      statementID,
		UserID:           rec.UserID,
		AccountID:        rec.AccountID,
		FileName:         rec.FileName,
		FileRef:          rec.FileRef,
		FileType:         rec.FileType,
		TransactionCount: int64(rec.TransactionCount),
		CreatedTS:        rec.CreatedAt,
	}

	if err := s.table(statementsTable).Inserter().Put(ctx, row); err != nil {
		return "", fmt.Errorf("CreateRecord: inserting row: %w", err)
	}
	return statementID, nil
}

// ListRecords returns the user's statement audit trail, newest first.
func (s *Store) ListRecords(ctx context.Context, userID string) ([]domain.StatementRecord, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
		  statement_id,
		  user_id,
		  account_id,
		  file_name,
		  file_ref,
		  file_type,
		  transaction_count,
		  created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC
	`, s.qualified(statementsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecords: query read: %w", err)
	}

	var out []domain.StatementRecord
	for {
		var r StatementRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecords: iter next: %w", err)
		}
		out = append(out, domain.StatementRecord{
			ID:               r.StatementID,
			UserID:           r.UserID,
			AccountID:        r.AccountID,
			FileName:         r.FileName,
			FileRef:          r.FileRef,
			FileType:         r.FileType,
			TransactionCount: int(r.TransactionCount),
			CreatedAt:        r.CreatedTS,
		})
	}
	return out, nil
}

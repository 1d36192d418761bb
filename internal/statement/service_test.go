package statement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlipovsky/homebudget/internal/domain"
)

type fakeCatalog struct {
	ListCategoriesFunc func(ctx context.Context, userID string) ([]domain.Category, error)
}

func (f *fakeCatalog) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	if f.ListCategoriesFunc != nil {
		return f.ListCategoriesFunc(ctx, userID)
	}
	return []domain.Category{
		{ID: "cat-1", Name: "Eating Out"},
		{ID: "cat-other", Name: "Other"},
	}, nil
}

type fakeHistory struct {
	ListRecentFunc func(ctx context.Context, accountID string, limit int) ([]domain.CommittedTransaction, error)
	BulkInsertFunc func(ctx context.Context, accountID string, txs []domain.CommittedTransaction) error

	inserted [][]domain.CommittedTransaction
}

func (f *fakeHistory) ListRecent(ctx context.Context, accountID string, limit int) ([]domain.CommittedTransaction, error) {
	if f.ListRecentFunc != nil {
		return f.ListRecentFunc(ctx, accountID, limit)
	}
	return nil, nil
}

func (f *fakeHistory) BulkInsert(ctx context.Context, accountID string, txs []domain.CommittedTransaction) error {
	if f.BulkInsertFunc != nil {
		if err := f.BulkInsertFunc(ctx, accountID, txs); err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, txs)
	return nil
}

type fakeAudit struct {
	CreateRecordFunc func(ctx context.Context, rec *domain.StatementRecord) (string, error)

	created []*domain.StatementRecord
}

func (f *fakeAudit) CreateRecord(ctx context.Context, rec *domain.StatementRecord) (string, error) {
	f.created = append(f.created, rec)
	if f.CreateRecordFunc != nil {
		return f.CreateRecordFunc(ctx, rec)
	}
	return "stmt-1", nil
}

func (f *fakeAudit) ListRecords(ctx context.Context, userID string) ([]domain.StatementRecord, error) {
	out := make([]domain.StatementRecord, 0, len(f.created))
	for _, rec := range f.created {
		out = append(out, *rec)
	}
	return out, nil
}

func newTestService(completion CompletionService, history *fakeHistory, audit *fakeAudit) *Service {
	svc := NewService(
		&fakeFileStore{},
		&fakePDFExtractor{},
		completion,
		&fakeCatalog{},
		history,
		audit,
		zerolog.Nop(),
	)
	svc.extractor.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return svc
}

func TestService_Preview(t *testing.T) {
	// 5 candidates, 2 with unusable dates: preview has exactly 3 rows and
	// the report shows 2 rejections.
	response := `[
		{"date":"31/12/2023","description":"Coffee Shop  ","amount":"12,50","category":""},
		{"date":"2023-12-30","description":"Groceries Store","amount":-54.20,"category":"eating out"},
		{"date":"2023-12-29","description":"Refund","amount":20.0,"category":"Misc"},
		{"date":"05/06/2023","description":"Ambiguous","amount":10.0,"category":"Other"},
		{"date":"someday","description":"No date","amount":10.0,"category":"Other"}
	]`
	completion := &fakeCompletion{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return response, nil
		},
	}
	history := &fakeHistory{
		ListRecentFunc: func(ctx context.Context, accountID string, limit int) ([]domain.CommittedTransaction, error) {
			assert.Equal(t, DedupWindow, limit)
			return []domain.CommittedTransaction{
				{Date: "2023-12-30", Amount: -54.20, Description: "Groceries Store"},
			}, nil
		},
	}

	svc := newTestService(completion, history, &fakeAudit{})
	result, err := svc.Preview(context.Background(), PreviewRequest{
		UserID:    "user-1",
		AccountID: "acct-1",
		FileRef:   "gs://bucket/statement.csv",
		FileName:  "statement.csv",
		FileType:  "csv",
	})
	require.NoError(t, err)

	require.Len(t, result.Preview, 3)
	assert.Equal(t, 2, result.Report.Rejected)
	assert.Equal(t, 3, result.Report.Accepted)
	assert.False(t, result.WasTruncated)
	assert.Len(t, result.AvailableCategories, 2)

	first := result.Preview[0]
	assert.Equal(t, "2023-12-31", first.Date)
	assert.Equal(t, "Coffee Shop", first.Description)
	assert.Equal(t, 12.50, first.Amount)
	assert.Equal(t, "Other", first.Category)
	assert.Equal(t, "cat-other", first.CategoryID)
	assert.False(t, first.IsDuplicate)

	// Case-insensitive category hit resolves to the catalog identity.
	second := result.Preview[1]
	assert.Equal(t, "Eating Out", second.Category)
	assert.Equal(t, "cat-1", second.CategoryID)
	assert.True(t, second.IsDuplicate, "row matching committed history must be flagged")

	// Unknown label falls back to Other's identity, advisory only.
	third := result.Preview[2]
	assert.Equal(t, "Other", third.Category)
	assert.Equal(t, "cat-other", third.CategoryID)
	assert.False(t, third.IsDuplicate)
}

func TestService_Preview_NoCandidates(t *testing.T) {
	completion := &fakeCompletion{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return "[]", nil
		},
	}
	svc := newTestService(completion, &fakeHistory{}, &fakeAudit{})

	_, err := svc.Preview(context.Background(), PreviewRequest{
		AccountID: "acct-1", FileRef: "gs://b/f.csv", FileType: "csv",
	})
	assert.ErrorIs(t, err, ErrNoTransactionsFound)
}

func TestService_Preview_AllInvalid(t *testing.T) {
	completion := &fakeCompletion{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return `[{"date":"someday","description":"Coffee","amount":1.0,"category":""}]`, nil
		},
	}
	svc := newTestService(completion, &fakeHistory{}, &fakeAudit{})

	_, err := svc.Preview(context.Background(), PreviewRequest{
		AccountID: "acct-1", FileRef: "gs://b/f.csv", FileType: "csv",
	})
	assert.ErrorIs(t, err, ErrAllCandidatesInvalid)
}

func validBatch(n int) []CommitTransaction {
	out := make([]CommitTransaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, CommitTransaction{
			Date:        "2023-12-31",
			Description: fmt.Sprintf("Transaction %d", i),
			Amount:      -10.5,
			CategoryID:  "cat-1",
		})
	}
	return out
}

func TestService_Commit(t *testing.T) {
	history := &fakeHistory{}
	audit := &fakeAudit{}
	svc := newTestService(&fakeCompletion{}, history, audit)

	result, err := svc.Commit(context.Background(), CommitRequest{
		UserID:       "user-1",
		AccountID:    "acct-1",
		FileRef:      "gs://bucket/statement.csv",
		FileName:     "statement.csv",
		FileType:     "csv",
		Transactions: validBatch(3),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TransactionCount)
	assert.Equal(t, "stmt-1", result.StatementID)

	require.Len(t, audit.created, 1)
	assert.Equal(t, 3, audit.created[0].TransactionCount)
	assert.Equal(t, "statement.csv", audit.created[0].FileName)

	require.Len(t, history.inserted, 1)
	for _, tx := range history.inserted[0] {
		assert.Equal(t, "Imported from statement.csv", tx.Notes)
	}
}

func TestService_Commit_AllOrNothing(t *testing.T) {
	history := &fakeHistory{}
	audit := &fakeAudit{}
	svc := newTestService(&fakeCompletion{}, history, audit)

	batch := validBatch(10)
	batch = append(batch, CommitTransaction{Date: "31/12/2023", Description: "Bad date format", Amount: 1})

	_, err := svc.Commit(context.Background(), CommitRequest{
		AccountID:    "acct-1",
		FileName:     "statement.csv",
		Transactions: batch,
	})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.Empty(t, audit.created, "no audit record on rejected batch")
	assert.Empty(t, history.inserted, "no rows persisted on rejected batch")
}

func TestService_Commit_BatchLimits(t *testing.T) {
	history := &fakeHistory{}
	audit := &fakeAudit{}
	svc := newTestService(&fakeCompletion{}, history, audit)

	_, err := svc.Commit(context.Background(), CommitRequest{AccountID: "acct-1"})
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = svc.Commit(context.Background(), CommitRequest{
		AccountID:    "acct-1",
		Transactions: validBatch(MaxCommitBatch + 1),
	})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Empty(t, history.inserted)

	_, err = svc.Commit(context.Background(), CommitRequest{
		AccountID:    "acct-1",
		FileName:     "statement.csv",
		Transactions: validBatch(MaxCommitBatch),
	})
	assert.NoError(t, err, "batch of exactly the cap is accepted")
}

func TestService_Commit_StrictValidation(t *testing.T) {
	tests := []struct {
		name string
		tx   CommitTransaction
	}{
		{name: "non-iso date", tx: CommitTransaction{Date: "31/12/2023", Description: "Coffee", Amount: 1}},
		{name: "invalid calendar date", tx: CommitTransaction{Date: "2023-02-31", Description: "Coffee", Amount: 1}},
		{name: "short description", tx: CommitTransaction{Date: "2023-12-31", Description: " x ", Amount: 1}},
		{name: "zero amount", tx: CommitTransaction{Date: "2023-12-31", Description: "Coffee", Amount: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeCompletion{}, &fakeHistory{}, &fakeAudit{})
			_, err := svc.Commit(context.Background(), CommitRequest{
				AccountID:    "acct-1",
				Transactions: []CommitTransaction{tt.tx},
			})
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

func TestService_Commit_InsertFailureKeepsAuditRecord(t *testing.T) {
	history := &fakeHistory{
		BulkInsertFunc: func(ctx context.Context, accountID string, txs []domain.CommittedTransaction) error {
			return errors.New("store unavailable")
		},
	}
	audit := &fakeAudit{}
	svc := newTestService(&fakeCompletion{}, history, audit)

	_, err := svc.Commit(context.Background(), CommitRequest{
		AccountID:    "acct-1",
		FileName:     "statement.csv",
		Transactions: validBatch(2),
	})
	require.Error(t, err)

	// The audit row written before the failed insert stays behind: the
	// accepted inconsistency window.
	assert.Len(t, audit.created, 1)
	assert.Empty(t, history.inserted)
}

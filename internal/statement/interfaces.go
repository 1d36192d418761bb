package statement

import (
	"context"

	"github.com/mlipovsky/homebudget/internal/domain"
)

// FileStore fetches the raw bytes of an uploaded statement file by its
// storage reference (e.g. a gs:// URI).
type FileStore interface {
	Fetch(ctx context.Context, fileRef string) ([]byte, error)
}

// PDFTextExtractor extracts plain text from PDF bytes. It is an isolated
// collaborator because text extraction needs a heavier runtime than the
// rest of the pipeline.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// EncodedImage is one statement page encoded for the completion service.
type EncodedImage struct {
	MIMEType string // e.g. "image/png"
	Data     string // base64-encoded image bytes
}

// CompletionService is the external language/vision model used for
// unstructured-to-structured extraction. Both methods must constrain the
// model to emit a JSON array of candidate transactions; the returned string
// is the raw response text.
type CompletionService interface {
	CompleteText(ctx context.Context, system, user string) (string, error)
	CompleteVision(ctx context.Context, system string, images []EncodedImage) (string, error)
}

// CategoryCatalog lists the caller's known categories.
type CategoryCatalog interface {
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
}

// TransactionHistory is the externally-owned transaction store. ListRecent
// returns up to limit committed transactions for the account, newest first;
// BulkInsert persists a reviewed batch.
type TransactionHistory interface {
	ListRecent(ctx context.Context, accountID string, limit int) ([]domain.CommittedTransaction, error)
	BulkInsert(ctx context.Context, accountID string, txs []domain.CommittedTransaction) error
}

// StatementAuditStore persists the append-only statement records.
type StatementAuditStore interface {
	CreateRecord(ctx context.Context, rec *domain.StatementRecord) (string, error)
	ListRecords(ctx context.Context, userID string) ([]domain.StatementRecord, error)
}

package statement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mlipovsky/homebudget/internal/domain"
)

// MaxCommitBatch is the hard cap on transactions per commit. Larger batches
// are rejected outright, never truncated.
const MaxCommitBatch = 500

// Service runs the statement ingestion pipeline: preview (read-only) and
// commit (the single persistent side effect). It owns no long-lived state;
// every invocation builds its own lookups from freshly fetched data.
type Service struct {
	content    *ContentExtractor
	extractor  *Extractor
	categories CategoryCatalog
	history    TransactionHistory
	audit      StatementAuditStore
	log        zerolog.Logger
}

// NewService wires the pipeline over its collaborators.
func NewService(
	files FileStore,
	pdf PDFTextExtractor,
	completion CompletionService,
	categories CategoryCatalog,
	history TransactionHistory,
	audit StatementAuditStore,
	log zerolog.Logger,
) *Service {
	return &Service{
		content:    NewContentExtractor(files, pdf),
		extractor:  NewExtractor(completion, log),
		categories: categories,
		history:    history,
		audit:      audit,
		log:        log,
	}
}

// PreviewRequest identifies the uploaded file and its owner.
type PreviewRequest struct {
	UserID    string
	AccountID string
	FileRef   string
	FileName  string
	FileType  string
}

// PreviewResult is the reviewable, non-persisted output of the parse stage.
type PreviewResult struct {
	Preview             []domain.PreviewTransaction `json:"preview"`
	AvailableCategories []domain.Category           `json:"available_categories"`
	WasTruncated        bool                        `json:"was_truncated"`
	Report              ValidationReport            `json:"report"`
}

// Preview runs extraction, validation, dedup flagging, and category
// resolution over an uploaded file. Read-only and idempotent; nothing is
// persisted.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	content, err := s.content.Extract(ctx, req.FileRef, req.FileType)
	if err != nil {
		return nil, err
	}

	known, err := s.categories.ListCategories(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("Preview: listing categories: %w", err)
	}
	names := make([]string, 0, len(known))
	for _, c := range known {
		names = append(names, c.Name)
	}

	var (
		candidates []RawCandidate
		truncated  bool
	)
	if content.IsImage() {
		candidates, err = s.extractor.ExtractFromImages(ctx, content.Images, names)
	} else {
		candidates, truncated, err = s.extractor.ExtractFromText(ctx, content.Text, names)
	}
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoTransactionsFound
	}

	validated, report := NormalizeCandidates(candidates)
	if len(validated) == 0 {
		return nil, fmt.Errorf("%w: %d candidates rejected (%d bad dates, %d bad amounts, %d bad descriptions)",
			ErrAllCandidatesInvalid, report.Rejected, report.BadDate, report.BadAmount, report.BadDescription)
	}

	existing, err := s.history.ListRecent(ctx, req.AccountID, DedupWindow)
	if err != nil {
		return nil, fmt.Errorf("Preview: listing transaction history: %w", err)
	}
	seen := NewFingerprintSet(existing)
	resolver := NewCategoryResolver(known)

	preview := make([]domain.PreviewTransaction, 0, len(validated))
	for _, tx := range validated {
		label, categoryID := resolver.Resolve(tx.Category)
		preview = append(preview, domain.PreviewTransaction{
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      tx.Amount,
			Category:    label,
			CategoryID:  categoryID,
			IsDuplicate: seen.Contains(tx),
		})
	}

	s.log.Info().
		Str("file_name", req.FileName).
		Str("account_id", req.AccountID).
		Int("accepted", report.Accepted).
		Int("rejected", report.Rejected).
		Bool("truncated", truncated).
		Msg("Statement preview built")

	return &PreviewResult{
		Preview:             preview,
		AvailableCategories: known,
		WasTruncated:        truncated,
		Report:              report,
	}, nil
}

// CommitTransaction is one caller-approved row. Nothing from the preview
// step is trusted; every row is re-validated strictly.
type CommitTransaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"category_id,omitempty"`
}

// CommitRequest is a reviewed batch to persist.
type CommitRequest struct {
	UserID       string
	AccountID    string
	FileRef      string
	FileName     string
	FileType     string
	Transactions []CommitTransaction
}

// CommitResult reports a successful commit.
type CommitResult struct {
	TransactionCount int    `json:"transaction_count"`
	StatementID      string `json:"statement_id"`
}

// Commit re-validates the batch, writes the statement audit record, then
// bulk-inserts the transactions. All-or-nothing: the verdict is reached
// before any write begins, so a single bad row means zero rows persisted.
// Not idempotent; committing the same batch twice creates a second
// statement record and duplicate transactions.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if err := validateCommitBatch(req.Transactions); err != nil {
		return nil, err
	}

	note := "Imported from " + req.FileName
	rows := make([]domain.CommittedTransaction, 0, len(req.Transactions))
	for _, tx := range req.Transactions {
		rows = append(rows, domain.CommittedTransaction{
			Date:        tx.Date,
			Description: strings.TrimSpace(tx.Description),
			Amount:      tx.Amount,
			CategoryID:  tx.CategoryID,
			Notes:       note,
		})
	}

	rec := &domain.StatementRecord{
		UserID:           req.UserID,
		AccountID:        req.AccountID,
		FileName:         req.FileName,
		FileRef:          req.FileRef,
		FileType:         req.FileType,
		TransactionCount: len(rows),
		CreatedAt:        time.Now().UTC(),
	}
	statementID, err := s.audit.CreateRecord(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("Commit: creating statement record: %w", err)
	}

	// If the insert fails past this point the statement record stays behind
	// as an orphaned audit entry with an overstated count. Accepted; an
	// operational reconciliation concern, not compensated here.
	if err := s.history.BulkInsert(ctx, req.AccountID, rows); err != nil {
		s.log.Error().Err(err).
			Str("statement_id", statementID).
			Int("count", len(rows)).
			Msg("Bulk insert failed after statement record was created")
		return nil, fmt.Errorf("Commit: inserting transactions: %w", err)
	}

	s.log.Info().
		Str("statement_id", statementID).
		Str("account_id", req.AccountID).
		Int("count", len(rows)).
		Msg("Statement committed")

	return &CommitResult{TransactionCount: len(rows), StatementID: statementID}, nil
}

// ListStatements returns the user's statement audit trail.
func (s *Service) ListStatements(ctx context.Context, userID string) ([]domain.StatementRecord, error) {
	return s.audit.ListRecords(ctx, userID)
}

// ListCategories exposes the category catalog to the API layer.
func (s *Service) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	return s.categories.ListCategories(ctx, userID)
}

// validateCommitBatch produces the single pass/fail verdict before any
// write. Strict rules: exact ISO date, trimmed description of at least two
// characters, finite nonzero amount, batch size within 1..MaxCommitBatch.
func validateCommitBatch(txs []CommitTransaction) error {
	if len(txs) == 0 {
		return ErrEmptyBatch
	}
	if len(txs) > MaxCommitBatch {
		return fmt.Errorf("%w: %d transactions, maximum is %d", ErrBatchTooLarge, len(txs), MaxCommitBatch)
	}
	for i, tx := range txs {
		if !isoDateRe.MatchString(tx.Date) {
			return fmt.Errorf("%w: row %d: date %q is not YYYY-MM-DD", ErrInvalidTransaction, i, tx.Date)
		}
		if _, err := time.Parse("2006-01-02", tx.Date); err != nil {
			return fmt.Errorf("%w: row %d: date %q is not a calendar date", ErrInvalidTransaction, i, tx.Date)
		}
		if len(strings.TrimSpace(tx.Description)) < minDescriptionLen {
			return fmt.Errorf("%w: row %d: description too short", ErrInvalidTransaction, i)
		}
		if isNonFinite(tx.Amount) || tx.Amount == 0 {
			return fmt.Errorf("%w: row %d: amount must be finite and nonzero", ErrInvalidTransaction, i)
		}
	}
	return nil
}

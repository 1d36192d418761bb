package statement

import "errors"

// Sentinel errors for the pipeline's failure taxonomy. Callers match with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrMissingCredential means the completion service has no API key
	// configured. Configuration errors are never retried.
	ErrMissingCredential = errors.New("completion service credential is not configured")

	// ErrUnsupportedFileType means the declared file extension is not one of
	// csv, tsv, png, jpg, jpeg, pdf.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyPDFText means PDF text extraction produced (near-)empty text,
	// which usually indicates a scanned statement that should be re-submitted
	// as images.
	ErrEmptyPDFText = errors.New("no text could be extracted from the PDF")

	// ErrNoTransactionsFound means extraction succeeded but produced zero
	// candidates.
	ErrNoTransactionsFound = errors.New("no transactions were found in the file")

	// ErrAllCandidatesInvalid means extraction produced candidates but every
	// one of them failed validation.
	ErrAllCandidatesInvalid = errors.New("transactions were found but none were valid")

	// ErrEmptyBatch and ErrBatchTooLarge are commit gate rejections. The
	// batch is rejected outright, never truncated.
	ErrEmptyBatch    = errors.New("commit batch is empty")
	ErrBatchTooLarge = errors.New("commit batch exceeds the maximum transaction count")

	// ErrInvalidTransaction marks a strict re-validation failure on commit.
	// A single bad row rejects the whole batch.
	ErrInvalidTransaction = errors.New("invalid transaction in commit batch")
)

// Package handlers implements the HTTP endpoints for statement preview,
// commit, and the supporting read-only listings.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mlipovsky/homebudget/internal/api/middleware"
	"github.com/mlipovsky/homebudget/internal/domain"
	"github.com/mlipovsky/homebudget/internal/statement"
)

// defaultUserID is used when the client sends no X-User-ID header. Real
// authentication lives outside this service.
const defaultUserID = "local"

// StatementService is the slice of the pipeline the handlers need.
type StatementService interface {
	Preview(ctx context.Context, req statement.PreviewRequest) (*statement.PreviewResult, error)
	Commit(ctx context.Context, req statement.CommitRequest) (*statement.CommitResult, error)
	ListStatements(ctx context.Context, userID string) ([]domain.StatementRecord, error)
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
}

// StatementsHandler serves the statement ingestion endpoints.
type StatementsHandler struct {
	svc StatementService
	log zerolog.Logger
}

// NewStatementsHandler creates the handler.
func NewStatementsHandler(svc StatementService, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{svc: svc, log: log}
}

type previewRequest struct {
	FileRef   string `json:"file_ref"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	AccountID string `json:"account_id"`
}

// Preview handles POST /api/statements/preview.
func (h *StatementsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileRef == "" || req.AccountID == "" || req.FileType == "" {
		middleware.WriteError(w, http.StatusBadRequest, "file_ref, file_type and account_id are required")
		return
	}

	result, err := h.svc.Preview(r.Context(), statement.PreviewRequest{
		UserID:    userID(r),
		AccountID: req.AccountID,
		FileRef:   req.FileRef,
		FileName:  req.FileName,
		FileType:  req.FileType,
	})
	if err != nil {
		h.log.Error().Err(err).Str("file_ref", req.FileRef).Msg("Preview failed")
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

type commitRequest struct {
	FileRef      string                        `json:"file_ref"`
	FileName     string                        `json:"file_name"`
	FileType     string                        `json:"file_type"`
	AccountID    string                        `json:"account_id"`
	Transactions []statement.CommitTransaction `json:"transactions"`
}

// Commit handles POST /api/statements/commit.
func (h *StatementsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	result, err := h.svc.Commit(r.Context(), statement.CommitRequest{
		UserID:       userID(r),
		AccountID:    req.AccountID,
		FileRef:      req.FileRef,
		FileName:     req.FileName,
		FileType:     req.FileType,
		Transactions: req.Transactions,
	})
	if err != nil {
		h.log.Error().Err(err).Str("account_id", req.AccountID).Msg("Commit failed")
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"transaction_count": result.TransactionCount,
		"statement_id":      result.StatementID,
	})
}

// List handles GET /api/statements.
func (h *StatementsHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListStatements(r.Context(), userID(r))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list statements")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list statements")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"statements": records,
		"count":      len(records),
	})
}

// Categories handles GET /api/categories.
func (h *StatementsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context(), userID(r))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}

// statusForError maps the pipeline's error taxonomy to HTTP status codes:
// content errors are unprocessable, commit validation errors are bad
// requests, everything else is a server-side failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, statement.ErrUnsupportedFileType),
		errors.Is(err, statement.ErrEmptyPDFText),
		errors.Is(err, statement.ErrNoTransactionsFound),
		errors.Is(err, statement.ErrAllCandidatesInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, statement.ErrEmptyBatch),
		errors.Is(err, statement.ErrBatchTooLarge),
		errors.Is(err, statement.ErrInvalidTransaction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

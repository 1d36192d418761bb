package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/mlipovsky/homebudget/internal/config"
	"github.com/mlipovsky/homebudget/internal/gcs"
	"github.com/mlipovsky/homebudget/internal/gemini"
	"github.com/mlipovsky/homebudget/internal/logger"
	"github.com/mlipovsky/homebudget/internal/pdftext"
	"github.com/mlipovsky/homebudget/internal/statement"
	"github.com/mlipovsky/homebudget/internal/store/bigquery"
)

// One-shot statement ingestion from the command line: preview a stored
// file, and with -commit persist every non-duplicate row unreviewed.
func main() {
	log := logger.New()
	cfg := config.Load()

	var (
		fileRef  = flag.String("file-ref", "", "Storage reference of the statement (e.g. gs://bucket/file.pdf)")
		fileType = flag.String("file-type", "pdf", "Declared file type: csv, tsv, png, jpg, jpeg, pdf")
		account  = flag.String("account", "", "Target account ID")
		user     = flag.String("user", "local", "Owning user ID")
		commit   = flag.Bool("commit", false, "Commit non-duplicate rows after preview")
	)
	flag.Parse()

	if *fileRef == "" || *account == "" {
		log.Fatal().Msg("Error: --file-ref and --account are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := bigquery.New(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer store.Close()

	files, err := gcs.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS file store")
	}
	defer files.Close()

	completion, err := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create completion client")
	}

	svc := statement.NewService(files, pdftext.New(cfg.PDFExtractorURL), completion, store, store, store, log)

	fileName := gcs.FilenameFromRef(*fileRef)
	log.Info().Str("file_ref", *fileRef).Str("account", *account).Msg("Starting preview")

	result, err := svc.Preview(ctx, statement.PreviewRequest{
		UserID:    *user,
		AccountID: *account,
		FileRef:   *fileRef,
		FileName:  fileName,
		FileType:  *fileType,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Preview failed")
	}

	for _, tx := range result.Preview {
		marker := " "
		if tx.IsDuplicate {
			marker = "D"
		}
		fmt.Printf("%s %s  %10.2f  %-40s  %s\n", marker, tx.Date, tx.Amount, tx.Description, tx.Category)
	}
	fmt.Printf("\n%d accepted, %d rejected", result.Report.Accepted, result.Report.Rejected)
	if result.WasTruncated {
		fmt.Print(" (input truncated)")
	}
	fmt.Println()

	if !*commit {
		return
	}

	batch := make([]statement.CommitTransaction, 0, len(result.Preview))
	for _, tx := range result.Preview {
		if tx.IsDuplicate {
			continue
		}
		batch = append(batch, statement.CommitTransaction{
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      tx.Amount,
			CategoryID:  tx.CategoryID,
		})
	}

	committed, err := svc.Commit(ctx, statement.CommitRequest{
		UserID:       *user,
		AccountID:    *account,
		FileRef:      *fileRef,
		FileName:     fileName,
		FileType:     *fileType,
		Transactions: batch,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Commit failed")
	}

	fmt.Printf("Committed %d transactions (statement %s).\n", committed.TransactionCount, committed.StatementID)
}

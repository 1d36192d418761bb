package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlipovsky/homebudget/internal/api/handlers"
	"github.com/mlipovsky/homebudget/internal/api/middleware"
	"github.com/mlipovsky/homebudget/internal/config"
	"github.com/mlipovsky/homebudget/internal/gcs"
	"github.com/mlipovsky/homebudget/internal/gemini"
	"github.com/mlipovsky/homebudget/internal/logger"
	"github.com/mlipovsky/homebudget/internal/pdftext"
	"github.com/mlipovsky/homebudget/internal/statement"
	"github.com/mlipovsky/homebudget/internal/store/bigquery"
)

func main() {
	cfg := config.Load()

	var (
		port    = flag.String("port", cfg.Port, "HTTP server port")
		project = flag.String("project", cfg.BigQueryProject, "BigQuery project ID (or set BIGQUERY_PROJECT)")
		dataset = flag.String("dataset", cfg.BigQueryDataset, "BigQuery dataset (or set BIGQUERY_DATASET)")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	if *project == "" {
		log.Fatal().Msg("BigQuery project is required (set BIGQUERY_PROJECT)")
	}

	store, err := bigquery.New(ctx, *project, *dataset)
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

	svc := statement.NewService(
		files,
		pdftext.New(cfg.PDFExtractorURL),
		completion,
		store,
		store,
		store,
		log,
	)

	statementsHandler := handlers.NewStatementsHandler(svc, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements/preview", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Preview(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/commit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Commit(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statementsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statementsHandler.Categories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/healthz", handlers.Health)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

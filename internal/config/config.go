// Package config loads service configuration from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Port            string
	GeminiAPIKey    string
	GeminiModel     string
	BigQueryProject string
	BigQueryDataset string
	PDFExtractorURL string
}

// Load reads configuration from the environment, applying defaults. A .env
// file in the working directory is honored when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            getenv("PORT", "8080"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		BigQueryProject: os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset: getenv("BIGQUERY_DATASET", "budget"),
		PDFExtractorURL: getenv("PDF_EXTRACTOR_URL", "http://localhost:8090"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

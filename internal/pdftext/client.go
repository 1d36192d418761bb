// Package pdftext is an HTTP client for the PDF text extraction service.
// Extraction runs out of process because it needs a heavier runtime than
// the rest of the pipeline.
package pdftext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts PDF bytes to the extractor endpoint and returns plain text.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the extractor service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type extractResponse struct {
	Text string `json:"text"`
}

// ExtractText sends the PDF and returns the extracted text.
func (c *Client) ExtractText(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("ExtractText: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ExtractText: call extractor service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ExtractText: extractor service returned %d: %s", resp.StatusCode, body)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ExtractText: decode extractor response: %w", err)
	}
	return out.Text, nil
}

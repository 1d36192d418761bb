// Package gcs implements the statement pipeline's file store over Google
// Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// FileStore fetches uploaded statement files by their gs:// reference.
type FileStore struct {
	client *storage.Client
}

// New creates a file store with a shared storage client.
func New(ctx context.Context) (*FileStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs.New: create storage client: %w", err)
	}
	return &FileStore{client: client}, nil
}

// Close releases the underlying client.
func (s *FileStore) Close() error {
	return s.client.Close()
}

// Fetch downloads the object behind a gs://bucket/path reference.
func (s *FileStore) Fetch(ctx context.Context, fileRef string) ([]byte, error) {
	bucket, object, err := splitURI(fileRef)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Fetch: read GCS object: %w", err)
	}
	return data, nil
}

// FilenameFromRef extracts the bare filename from a GCS URI,
// e.g. "gs://bucket/folder/file.pdf" -> "file.pdf".
func FilenameFromRef(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func splitURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	if trimmed == uri {
		return "", "", fmt.Errorf("splitURI: %q is not a gs:// URI", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("splitURI: %q is missing bucket or object", uri)
	}
	return parts[0], parts[1], nil
}

package statement

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// minPDFTextLen is the threshold below which extracted PDF text is treated
// as a scanned statement rather than a text statement.
const minPDFTextLen = 50

// Content is the interpretable form of an uploaded file: either decoded
// text (CSV/TSV/PDF-extracted) or a set of encoded page images.
type Content struct {
	Text   string
	Images []EncodedImage
}

// IsImage reports whether the content should go through the vision path.
func (c *Content) IsImage() bool {
	return len(c.Images) > 0
}

// ContentExtractor turns an opaque stored file into interpretable content,
// dispatching on the declared file type.
type ContentExtractor struct {
	files FileStore
	pdf   PDFTextExtractor
}

// NewContentExtractor creates a content extractor over the given collaborators.
func NewContentExtractor(files FileStore, pdf PDFTextExtractor) *ContentExtractor {
	return &ContentExtractor{files: files, pdf: pdf}
}

// Extract fetches the file and converts it according to its declared type.
// Unsupported extensions fail immediately with ErrUnsupportedFileType; no
// network call to the completion service happens for them.
func (e *ContentExtractor) Extract(ctx context.Context, fileRef, fileType string) (*Content, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileType), "."))

	switch ext {
	case "csv", "tsv":
		data, err := e.files.Fetch(ctx, fileRef)
		if err != nil {
			return nil, fmt.Errorf("Extract: fetching %s file: %w", ext, err)
		}
		return &Content{Text: decodeText(data)}, nil

	case "png", "jpg", "jpeg":
		data, err := e.files.Fetch(ctx, fileRef)
		if err != nil {
			return nil, fmt.Errorf("Extract: fetching image: %w", err)
		}
		mime := "image/png"
		if ext != "png" {
			mime = "image/jpeg"
		}
		img := EncodedImage{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(data),
		}
		return &Content{Images: []EncodedImage{img}}, nil

	case "pdf":
		data, err := e.files.Fetch(ctx, fileRef)
		if err != nil {
			return nil, fmt.Errorf("Extract: fetching pdf: %w", err)
		}
		text, err := e.pdf.ExtractText(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("Extract: pdf text extraction: %w", err)
		}
		if len(strings.TrimSpace(text)) < minPDFTextLen {
			return nil, fmt.Errorf("Extract: %w: the statement looks scanned, re-upload it as images", ErrEmptyPDFText)
		}
		return &Content{Text: text}, nil

	default:
		return nil, fmt.Errorf("Extract: %w: %q (supported: csv, tsv, png, jpg, jpeg, pdf)", ErrUnsupportedFileType, fileType)
	}
}

// decodeText decodes statement bytes as UTF-8 when valid, otherwise as
// ISO-8859-1. Latin-1 accepts any byte stream, so this never fails; a
// slightly wrong recovered character beats dropping the whole file, since
// statements from different banks mix encodings.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

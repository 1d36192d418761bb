package statement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// maxTextChars caps text-mode input. Oversized statements are truncated
	// and the flag propagated to the caller instead of failing the upload.
	maxTextChars = 50000

	// maxAttempts bounds the retry loop around the completion service.
	maxAttempts = 3
)

// Extractor obtains structured transaction candidates from statement
// content via the completion service, retrying transient failures.
type Extractor struct {
	svc CompletionService
	log zerolog.Logger

	// sleep is swapped out in tests so the backoff contract can be asserted
	// without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExtractor creates an extraction client over the completion service.
func NewExtractor(svc CompletionService, log zerolog.Logger) *Extractor {
	return &Extractor{
		svc:   svc,
		log:   log,
		sleep: sleepCtx,
	}
}

// ExtractFromText sends statement text to the completion service and
// returns candidates plus whether the input was truncated to fit the cap.
func (e *Extractor) ExtractFromText(ctx context.Context, text string, categories []string) ([]RawCandidate, bool, error) {
	truncated := false
	if len(text) > maxTextChars {
		text = text[:maxTextChars]
		truncated = true
		e.log.Warn().Int("cap", maxTextChars).Msg("Statement text truncated before extraction")
	}

	system := buildSystemPrompt(categories)
	candidates, err := e.withRetry(ctx, func(ctx context.Context) (string, error) {
		return e.svc.CompleteText(ctx, system, textUserPrompt(text))
	})
	if err != nil {
		return nil, truncated, err
	}
	return candidates, truncated, nil
}

// ExtractFromImages sends statement page images through the vision path.
func (e *Extractor) ExtractFromImages(ctx context.Context, images []EncodedImage, categories []string) ([]RawCandidate, error) {
	system := buildSystemPrompt(categories)
	return e.withRetry(ctx, func(ctx context.Context) (string, error) {
		return e.svc.CompleteVision(ctx, system, images)
	})
}

// withRetry runs one completion call plus response parsing, retrying up to
// maxAttempts with a linear backoff of attempt x 1s. Linear, not
// exponential: call volume is bounded by human-driven uploads. A missing
// credential is a configuration error and fails on the spot. After the last
// attempt the last error is surfaced.
func (e *Extractor) withRetry(ctx context.Context, call func(ctx context.Context) (string, error)) ([]RawCandidate, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := call(ctx)
		if err == nil && raw == "" {
			err = errors.New("empty response from completion service")
		}

		var candidates []RawCandidate
		if err == nil {
			candidates, err = parseCandidates(raw)
		}
		if err == nil {
			return candidates, nil
		}

		if errors.Is(err, ErrMissingCredential) {
			return nil, err
		}

		lastErr = err
		e.log.Warn().Err(err).Int("attempt", attempt).Msg("Extraction attempt failed")

		if attempt < maxAttempts {
			if serr := e.sleep(ctx, time.Duration(attempt)*time.Second); serr != nil {
				return nil, serr
			}
		}
	}

	return nil, fmt.Errorf("withRetry: extraction failed after %d attempts: %w", maxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

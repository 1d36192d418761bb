package statement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeCompletion struct {
	TextFunc   func(ctx context.Context, system, user string) (string, error)
	VisionFunc func(ctx context.Context, system string, images []EncodedImage) (string, error)
	textCalls  int
}

func (f *fakeCompletion) CompleteText(ctx context.Context, system, user string) (string, error) {
	f.textCalls++
	if f.TextFunc != nil {
		return f.TextFunc(ctx, system, user)
	}
	return "[]", nil
}

func (f *fakeCompletion) CompleteVision(ctx context.Context, system string, images []EncodedImage) (string, error) {
	if f.VisionFunc != nil {
		return f.VisionFunc(ctx, system, images)
	}
	return "[]", nil
}

// newTestExtractor records backoff delays instead of sleeping.
func newTestExtractor(svc CompletionService) (*Extractor, *[]time.Duration) {
	e := NewExtractor(svc, zerolog.Nop())
	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return e, &slept
}

const validResponse = `[{"date":"2023-12-31","description":"Coffee","amount":-3.5,"category":"Eating Out"}]`

func TestExtractor_Success(t *testing.T) {
	svc := &fakeCompletion{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return validResponse, nil
		},
	}
	e, slept := newTestExtractor(svc)

	candidates, truncated, err := e.ExtractFromText(context.Background(), "statement text", []string{"Eating Out"})
	if err != nil {
		t.Fatalf("ExtractFromText() error: %v", err)
	}
	if truncated {
		t.Error("short input should not be truncated")
	}
	if len(candidates) != 1 || candidates[0].Description != "Coffee" {
		t.Fatalf("candidates = %+v, want one Coffee row", candidates)
	}
	if len(*slept) != 0 {
		t.Errorf("successful first attempt should not back off, slept %v", *slept)
	}
}

func TestExtractor_RetriesWithLinearBackoff(t *testing.T) {
	svc := &fakeCompletion{}
	svc.TextFunc = func(ctx context.Context, system, user string) (string, error) {
		if svc.textCalls < 3 {
			return "", errors.New("transient network failure")
		}
		return validResponse, nil
	}
	e, slept := newTestExtractor(svc)

	candidates, _, err := e.ExtractFromText(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("ExtractFromText() error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate after retries, got %d", len(candidates))
	}
	if svc.textCalls != 3 {
		t.Errorf("calls = %d, want 3", svc.textCalls)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) || (*slept)[0] != want[0] || (*slept)[1] != want[1] {
		t.Errorf("backoff = %v, want %v", *slept, want)
	}
}

func TestExtractor_ExhaustsAttempts(t *testing.T) {
	svc := &fakeCompletion{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return "", errors.New("still down")
		},
	}
	e, _ := newTestExtractor(svc)

	_, _, err := e.ExtractFromText(context.Background(), "text", nil)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if svc.textCalls != maxAttempts {
		t.Errorf("calls = %d, want %d", svc.textCalls, maxAttempts)
	}
	if !strings.Contains(err.Error(), "still down") {
		t.Errorf("error should surface the last failure, got: %v", err)
	}
}

func TestExtractor_MalformedJSONIsRetried(t *testing.T) {
	svc := &fakeCompletion{}
	svc.TextFunc = func(ctx context.Context, system, user string) (string, error) {
		if svc.textCalls == 1 {
			return `{"transactions": "not an array"}`, nil
		}
		return validResponse, nil
	}
	e, _ := newTestExtractor(svc)

	candidates, _, err := e.ExtractFromText(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("ExtractFromText() error: %v", err)
	}
	if len(candidates) != 1 || svc.textCalls != 2 {
		t.Errorf("want recovery on second call, got %d candidates after %d calls", len(candidates), svc.textCalls)
	}
}

func TestExtractor_EmptyResponseIsRetried(t *testing.T) {
	svc := &fakeCompletion{}
	svc.TextFunc = func(ctx context.Context, system, user string) (string, error) {
		if svc.textCalls == 1 {
			return "", nil
		}
		return validResponse, nil
	}
	e, _ := newTestExtractor(svc)

	_, _, err := e.ExtractFromText(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("ExtractFromText() error: %v", err)
	}
	if svc.textCalls != 2 {
		t.Errorf("calls = %d, want retry after empty response", svc.textCalls)
	}
}

func TestExtractor_MissingCredentialNotRetried(t *testing.T) {
	svc := &fakeCompletion{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return "", ErrMissingCredential
		},
	}
	e, slept := newTestExtractor(svc)

	_, _, err := e.ExtractFromText(context.Background(), "text", nil)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
	if svc.textCalls != 1 {
		t.Errorf("calls = %d, configuration errors must not be retried", svc.textCalls)
	}
	if len(*slept) != 0 {
		t.Errorf("no backoff expected, slept %v", *slept)
	}
}

func TestExtractor_TruncatesOversizedText(t *testing.T) {
	var gotLen int
	svc := &fakeCompletion{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			gotLen = len(user)
			return validResponse, nil
		},
	}
	e, _ := newTestExtractor(svc)

	big := strings.Repeat("x", maxTextChars+1000)
	_, truncated, err := e.ExtractFromText(context.Background(), big, nil)
	if err != nil {
		t.Fatalf("ExtractFromText() error: %v", err)
	}
	if !truncated {
		t.Error("oversized input must report truncation")
	}
	if gotLen > maxTextChars+len(textUserPrompt("")) {
		t.Errorf("prompt length %d exceeds the cap", gotLen)
	}
}

func TestExtractor_Vision(t *testing.T) {
	var gotImages []EncodedImage
	svc := &fakeCompletion{
		VisionFunc: func(ctx context.Context, system string, images []EncodedImage) (string, error) {
			gotImages = images
			return validResponse, nil
		},
	}
	e, _ := newTestExtractor(svc)

	images := []EncodedImage{{MIMEType: "image/png", Data: "aGVsbG8="}}
	candidates, err := e.ExtractFromImages(context.Background(), images, []string{"Eating Out"})
	if err != nil {
		t.Fatalf("ExtractFromImages() error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	if len(gotImages) != 1 || gotImages[0].MIMEType != "image/png" {
		t.Errorf("images were not passed through: %+v", gotImages)
	}
}

package statement

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawCandidate is an untrusted transaction as returned by the completion
// service. It has no identity and exists only within one pipeline run.
// Amount stays untyped because models occasionally emit amounts as strings
// despite the schema; the normalizer sorts that out.
type RawCandidate struct {
	Date        string
	Description string
	Amount      any
	Category    string
}

// parseCandidates decodes a model response into raw candidates. The
// response must be a JSON array of objects; anything else is a shape
// violation and therefore a retryable failure for the extraction client.
func parseCandidates(raw string) ([]RawCandidate, error) {
	clean := cleanModelJSON(raw)

	var items []map[string]any
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("parseCandidates: response is not a JSON array of objects: %w", err)
	}

	out := make([]RawCandidate, 0, len(items))
	for _, obj := range items {
		out = append(out, RawCandidate{
			Date:        stringField(obj, "date"),
			Description: stringField(obj, "description"),
			Amount:      obj["amount"],
			Category:    stringField(obj, "category"),
		})
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the no-fences instruction, keeping only the outermost JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

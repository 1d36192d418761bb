package statement

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	minDescriptionLen = 2
	maxDescriptionLen = 200

	// DefaultCategory is the literal label a candidate gets when the model
	// returned no category at all.
	DefaultCategory = "Other"
)

// ValidatedTransaction is a raw candidate that survived normalization.
// Every field is present and well-formed; candidates that cannot be
// normalized are dropped, never defaulted.
type ValidatedTransaction struct {
	Date        string // YYYY-MM-DD
	Description string
	Amount      float64
	Category    string
}

// ValidationReport aggregates what happened to a batch of raw candidates,
// with enough detail to tell the user "nothing found" apart from "found but
// all invalid". Counts only; raw content never leaves the pipeline.
type ValidationReport struct {
	Total          int `json:"total"`
	Accepted       int `json:"accepted"`
	Rejected       int `json:"rejected"`
	BadDate        int `json:"bad_date"`
	BadAmount      int `json:"bad_amount"`
	BadDescription int `json:"bad_description"`
}

// NormalizeCandidates validates each raw candidate independently and
// returns the survivors plus the aggregate report.
func NormalizeCandidates(candidates []RawCandidate) ([]ValidatedTransaction, ValidationReport) {
	report := ValidationReport{Total: len(candidates)}
	out := make([]ValidatedTransaction, 0, len(candidates))

	for _, c := range candidates {
		date, err := NormalizeDate(c.Date)
		if err != nil {
			report.BadDate++
			report.Rejected++
			continue
		}
		amount, err := NormalizeAmount(c.Amount)
		if err != nil {
			report.BadAmount++
			report.Rejected++
			continue
		}
		desc, err := CleanDescription(c.Description)
		if err != nil {
			report.BadDescription++
			report.Rejected++
			continue
		}

		category := strings.TrimSpace(c.Category)
		if category == "" {
			category = DefaultCategory
		}

		out = append(out, ValidatedTransaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Category:    category,
		})
		report.Accepted++
	}

	return out, report
}

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyRe     = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`)
)

// fallbackLayouts are common statement date spellings tried last, in order.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
	"02 Jan 06",
}

// NormalizeDate resolves a candidate date to YYYY-MM-DD, trying rules in
// strict order: ISO as-is, then day-first numeric, then month-first only
// when day-first is impossible, then generic layouts. Numeric dates where
// both leading values could be a month are rejected rather than guessed;
// silently picking an order risks swapped day/month on financial data.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("NormalizeDate: empty date")
	}

	if isoDateRe.MatchString(s) {
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return s, nil
		}
		return "", fmt.Errorf("NormalizeDate: %q is not a calendar date", s)
	}

	if m := dmyRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		if day <= 12 && month <= 12 {
			return "", fmt.Errorf("NormalizeDate: %q is ambiguous between day-first and month-first", s)
		}
		if calendarValid(year, month, day) {
			return formatDate(year, month, day), nil
		}
		// Day-first impossible; month-first is the only reading left.
		if calendarValid(year, day, month) {
			return formatDate(year, day, month), nil
		}
		return "", fmt.Errorf("NormalizeDate: %q is not a calendar date", s)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("NormalizeDate: cannot parse %q", s)
}

func calendarValid(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func formatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// europeanAmountRe matches comma-as-decimal amounts with optional
// dot-separated thousands, e.g. "1.234,56" or "1234,56".
var europeanAmountRe = regexp.MustCompile(`^[-+]?\d+(?:\.\d{3})*,\d+$`)

// NormalizeAmount converts a raw amount (JSON number or string) to a value
// rounded to two decimals, half-up at the cent. Zero after rounding is
// rejected: a zero-amount transaction is not meaningful.
func NormalizeAmount(v any) (float64, error) {
	var d decimal.Decimal

	switch val := v.(type) {
	case float64:
		if isNonFinite(val) {
			return 0, fmt.Errorf("NormalizeAmount: non-finite amount")
		}
		d = decimal.NewFromFloat(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case string:
		parsed, err := parseAmountString(val)
		if err != nil {
			return 0, err
		}
		d = parsed
	default:
		return 0, fmt.Errorf("NormalizeAmount: amount has type %T, want number or string", v)
	}

	d = d.Round(2)
	if d.IsZero() {
		return 0, fmt.Errorf("NormalizeAmount: amount rounds to zero")
	}
	f, _ := d.Float64()
	return f, nil
}

func parseAmountString(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)

	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("parseAmountString: empty amount")
	}

	if europeanAmountRe.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parseAmountString: cannot parse %q: %w", s, err)
	}
	return d, nil
}

func isNonFinite(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// CleanDescription collapses whitespace runs, strips characters outside
// printable ASCII and the Latin-1 supplement (accented merchant names stay,
// control and binary noise goes), and bounds the length. Too short rejects;
// too long truncates.
func CleanDescription(s string) (string, error) {
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if (r >= 0x20 && r <= 0x7E) || (r >= 0xA0 && r <= 0xFF) {
			return r
		}
		return -1
	}, s)
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) < minDescriptionLen {
		return "", fmt.Errorf("CleanDescription: description too short after cleaning")
	}
	if len(runes) > maxDescriptionLen {
		s = string(runes[:maxDescriptionLen])
	}
	return s, nil
}

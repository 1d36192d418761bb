package statement

import (
	"fmt"
	"strings"

	"github.com/mlipovsky/homebudget/internal/domain"
)

const (
	// fingerprintDescLen is how much of the lowercased description goes into
	// the fingerprint. Long enough to tell transactions apart, short enough
	// that trailing reference numbers don't defeat the match.
	fingerprintDescLen = 30

	// DedupWindow is how many committed transactions are fingerprinted per
	// account. A generous cap beats scanning unbounded history; duplicates
	// older than this are the reviewer's problem.
	DedupWindow = 5000
)

// Fingerprint derives the approximate-duplicate key for a transaction.
// Amounts are fixed to two decimals on both sides of the comparison so
// float formatting noise cannot split a match.
func Fingerprint(date string, amount float64, description string) string {
	desc := strings.ToLower(description)
	if runes := []rune(desc); len(runes) > fingerprintDescLen {
		desc = string(runes[:fingerprintDescLen])
	}
	return fmt.Sprintf("%s|%.2f|%s", date, amount, desc)
}

// FingerprintSet is the committed-transaction index used to flag likely
// duplicates. Flags are advisory: the reviewer decides what to exclude, the
// pipeline never drops a row for being a duplicate.
type FingerprintSet map[string]struct{}

// NewFingerprintSet indexes existing transactions.
func NewFingerprintSet(existing []domain.CommittedTransaction) FingerprintSet {
	set := make(FingerprintSet, len(existing))
	for _, tx := range existing {
		set[Fingerprint(tx.Date, tx.Amount, tx.Description)] = struct{}{}
	}
	return set
}

// Contains reports whether a candidate matches a committed transaction.
func (s FingerprintSet) Contains(tx ValidatedTransaction) bool {
	_, ok := s[Fingerprint(tx.Date, tx.Amount, tx.Description)]
	return ok
}

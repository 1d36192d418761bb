package statement

import (
	"strings"

	"github.com/mlipovsky/homebudget/internal/domain"
)

// CategoryResolver maps free-text category labels onto the caller's known
// category identities. The lookup is built once per pipeline run from
// freshly fetched categories, so concurrent uploads do not interfere.
type CategoryResolver struct {
	byName  map[string]domain.Category
	otherID string
}

// NewCategoryResolver builds the lowercased-name lookup.
func NewCategoryResolver(categories []domain.Category) *CategoryResolver {
	r := &CategoryResolver{byName: make(map[string]domain.Category, len(categories))}
	for _, c := range categories {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		r.byName[key] = c
		if key == strings.ToLower(DefaultCategory) {
			r.otherID = c.ID
		}
	}
	return r
}

// Resolve returns the label to display and the resolved category ID. On a
// miss it falls back to the caller's "Other" category; if no "Other" is
// configured either, the transaction comes back labeled "Other" with an
// empty ID, a degraded state the UI treats as uncategorized.
func (r *CategoryResolver) Resolve(label string) (string, string) {
	if c, ok := r.byName[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c.Name, c.ID
	}
	return DefaultCategory, r.otherID
}

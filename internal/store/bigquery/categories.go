package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/mlipovsky/homebudget/internal/domain"
)

// ListCategories returns the user's active categories, ordered by name.
func (s *Store) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
		  category_id,
		  user_id,
		  category_name,
		  is_active
		FROM %s
		WHERE user_id = @user_id
		  AND is_active = TRUE
		ORDER BY category_name
	`, s.qualified(categoriesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var out []domain.Category
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		out = append(out, domain.Category{ID: r.CategoryID, Name: r.Name})
	}
	return out, nil
}

// Package bigquery implements the pipeline's persistence collaborators
// (category catalog, transaction history, statement audit store) on
// BigQuery.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	categoriesTable   = "categories"
	transactionsTable = "transactions"
	statementsTable   = "statements"
)

// Store holds a shared BigQuery client scoped to one project and dataset.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// New creates a store for the given project and dataset.
func New(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery.New: create client: %w", err)
	}
	return &Store{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) table(name string) *bigquery.Table {
	return s.client.DatasetInProject(s.projectID, s.datasetID).Table(name)
}

func (s *Store) qualified(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.projectID, s.datasetID, name)
}

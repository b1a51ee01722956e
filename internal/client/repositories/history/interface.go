// Package history persists the append-only audit trail of entry mutations.
// The schema rejects updates and deletes of stored records.
package history

import (
	"context"

	"github.com/dmitrijs2005/braindock/internal/models"
)

type Repository interface {
	Append(ctx context.Context, rec *models.HistoryRecord) error

	// List returns records ordered by created_at, then insertion order.
	// An empty entryID lists the whole log.
	List(ctx context.Context, entryID string) ([]models.HistoryRecord, error)
}

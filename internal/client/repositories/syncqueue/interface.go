// Package syncqueue persists delivery intents for entries. At most one
// pending item per entry is enforced by a partial unique index.
package syncqueue

import (
	"context"
	"time"

	"github.com/dmitrijs2005/braindock/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, item *models.SyncQueueItem) error
	GetByID(ctx context.Context, id string) (*models.SyncQueueItem, error)

	// FindByEntry returns the most recent item of entryID in the given
	// status, or common.ErrNotFound.
	FindByEntry(ctx context.Context, entryID string, status models.SyncStatus) (*models.SyncQueueItem, error)

	// List returns items oldest first; an empty status lists all of them.
	List(ctx context.Context, status models.SyncStatus) ([]models.SyncQueueItem, error)

	// Transition moves an item from one status to another as a conditional
	// update. Moving to syncing counts an attempt, moving to synced clears
	// last_error and moving to failed stores lastError.
	Transition(ctx context.Context, id string, from, to models.SyncStatus, lastError string, at time.Time) error
}

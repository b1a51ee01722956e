package entries

import (
	"context"

	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/search"
)

// Repository describes persistence operations for entries.
type Repository interface {
	// Insert stores a new entry; a duplicate id is a storage error.
	Insert(ctx context.Context, e *models.Entry) error

	// Upsert inserts or replaces the entry with the same id.
	Upsert(ctx context.Context, e *models.Entry) error

	// GetByID returns common.ErrNotFound for an unknown id.
	GetByID(ctx context.Context, id string) (*models.Entry, error)

	// List applies f in SQL, newest occurred_at first, at most limit rows.
	List(ctx context.Context, f models.Filter, limit int) ([]models.Entry, error)

	// SaveSearchDocument stores doc unless the stored text is identical.
	SaveSearchDocument(ctx context.Context, doc search.Document) error

	// SearchDocuments returns stored documents keyed by entry id.
	SearchDocuments(ctx context.Context) (map[string]search.Document, error)
}

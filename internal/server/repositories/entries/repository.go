package entries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/braindock/internal/lww"
	"github.com/dmitrijs2005/braindock/internal/models"
)

// PushResult reports what a push did to the stored copy.
type PushResult struct {
	RemoteID string
	Outcome  lww.Outcome
}

// Repository is the remote durable store.
type Repository interface {
	// Push stores e under last-writer-wins. remoteID is used only when the
	// entry is new; otherwise the existing remote id is returned.
	Push(ctx context.Context, e models.Entry, remoteID string, at time.Time) (PushResult, error)
	GetByID(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, f models.Filter, limit int) ([]models.Entry, error)
	Ping(ctx context.Context) error
}

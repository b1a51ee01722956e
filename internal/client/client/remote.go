package client

import (
	"context"

	"github.com/dmitrijs2005/braindock/internal/models"
)

// RemoteAuthority is the durable remote copy of the entries.
type RemoteAuthority interface {
	// Push stores e and returns its remote id. Pushing the same
	// (id, updated_at) twice returns the same remote id and stores nothing.
	Push(ctx context.Context, e models.Entry) (string, error)
	Read(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, f models.Filter) ([]models.Entry, error)
}

// Pinger is implemented by authorities that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

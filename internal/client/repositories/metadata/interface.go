// Package metadata stores small client-side bookkeeping values such as the
// time of the last pull from the remote authority.
package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyLastPullAt  = "last_pull_at"
	KeyLastDrainAt = "last_drain_at"
)

type Repository interface {
	// Get returns ("", nil) when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) (map[string]string, error)

	// GetTime returns the zero time when the key is absent.
	GetTime(ctx context.Context, key string) (time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}

// Package services holds the server-side business logic of the remote
// authority. Transport adapters (gRPC, the client's direct Postgres mode)
// call AuthorityService and never the repository directly.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/logging"
	"github.com/dmitrijs2005/braindock/internal/lww"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/server/repositories/entries"
	"github.com/google/uuid"
)

// AuthorityService validates incoming entries and stores them with
// last-writer-wins semantics.
type AuthorityService struct {
	repo         entries.Repository
	maxListLimit int
	logger       logging.Logger

	now         func() time.Time
	newRemoteID func() (string, error)
}

func NewAuthorityService(repo entries.Repository, maxListLimit int, logger logging.Logger) *AuthorityService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AuthorityService{
		repo:         repo,
		maxListLimit: maxListLimit,
		logger:       logger.With("module", "authority"),
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newRemoteID:  newV7,
	}
}

func newV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Push stores e unless the stored copy is at least as new. Replaying the same
// (id, updated_at) returns the same remote id and changes nothing.
func (s *AuthorityService) Push(ctx context.Context, e models.Entry) (string, lww.Outcome, error) {
	if err := e.Validate(); err != nil {
		return "", lww.KeepLocal, err
	}
	if e.UpdatedAt.IsZero() {
		return "", lww.KeepLocal, common.Invalid("updated_at", "must be set")
	}
	e.OccurredAt = e.OccurredAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	remoteID, err := s.newRemoteID()
	if err != nil {
		return "", lww.KeepLocal, err
	}

	res, err := s.repo.Push(ctx, e, remoteID, s.now())
	if err != nil {
		s.logger.Error(ctx, "push failed", "entry_id", e.ID, "error", err)
		return "", lww.KeepLocal, err
	}

	s.logger.Info(ctx, "push", "entry_id", e.ID, "remote_id", res.RemoteID, "outcome", res.Outcome.String())
	return res.RemoteID, res.Outcome, nil
}

func (s *AuthorityService) Read(ctx context.Context, id string) (*models.Entry, error) {
	if id == "" {
		return nil, common.Invalid("id", "must not be empty")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns stored entries matching f; the limit is clamped to the
// configured maximum.
func (s *AuthorityService) List(ctx context.Context, f models.Filter) ([]models.Entry, error) {
	return s.repo.List(ctx, f, f.EffectiveLimit(s.maxListLimit))
}

func (s *AuthorityService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

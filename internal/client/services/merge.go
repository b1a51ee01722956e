package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/braindock/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/dbx"
	"github.com/dmitrijs2005/braindock/internal/lww"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/search"
)

// MergeResult reports what Merge did with an incoming version.
type MergeResult struct {
	EntryID string      `json:"entry_id"`
	Outcome lww.Outcome `json:"-"`
	// Applied is false when the local store was left untouched.
	Applied bool `json:"applied"`
}

// Merge applies an incoming remote version of an entry under the
// last-writer-wins rule. Replaying a merge does not change the store.
func (e *Engine) Merge(ctx context.Context, incoming models.Entry) (*MergeResult, error) {
	if err := incoming.Validate(); err != nil {
		return nil, err
	}
	if incoming.UpdatedAt.IsZero() {
		return nil, common.Invalid("updated_at", "must be set")
	}
	incoming.Tags = models.NormalizeTags(incoming.Tags)
	incoming.OccurredAt = incoming.OccurredAt.UTC()
	incoming.CreatedAt = incoming.CreatedAt.UTC()
	incoming.UpdatedAt = incoming.UpdatedAt.UTC()

	unlock := e.locks.Lock(incoming.ID)
	defer unlock()

	res := &MergeResult{EntryID: incoming.ID}
	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := e.rm.Entries(tx)
		local, err := repo.GetByID(ctx, incoming.ID)
		if errors.Is(err, common.ErrNotFound) {
			res.Outcome = lww.TakeIncoming
			res.Applied = true
			merged := incoming
			merged.SyncStatus = models.SyncStatusSynced
			if merged.CreatedAt.IsZero() {
				merged.CreatedAt = merged.UpdatedAt
			}
			return e.applyMerge(ctx, tx, nil, merged)
		}
		if err != nil {
			return err
		}

		if local.Type != incoming.Type {
			return common.Invalid("declared_type", "cannot change from %s to %s", local.Type, incoming.Type)
		}

		res.Outcome = lww.Decide(*local, incoming)
		if !res.Outcome.IncomingWins() {
			return nil
		}

		merged := lww.Resolve(*local, incoming)
		merged.CreatedAt = local.CreatedAt
		if merged.RemoteID == "" {
			merged.RemoteID = local.RemoteID
		}
		// An outstanding local delivery keeps its status; it will push the
		// merged content.
		merged.SyncStatus = local.SyncStatus
		if local.SyncStatus == "" {
			merged.SyncStatus = models.SyncStatusSynced
		}

		same, err := sameSnapshot(*local, merged)
		if err != nil {
			return err
		}
		if same {
			return nil
		}
		res.Applied = true
		return e.applyMerge(ctx, tx, local, merged)
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		e.logger.Info(ctx, "remote version merged", "entry_id", incoming.ID, "outcome", res.Outcome.String())
	}
	return res, nil
}

func (e *Engine) applyMerge(ctx context.Context, tx dbx.DBTX, local *models.Entry, merged models.Entry) error {
	repo := e.rm.Entries(tx)
	if err := repo.Upsert(ctx, &merged); err != nil {
		return err
	}
	if err := repo.SaveSearchDocument(ctx, search.BuildDocument(merged)); err != nil {
		return err
	}
	rec, err := e.history(merged.ID, models.HistorySourceRemote, local, merged, e.clock())
	if err != nil {
		return err
	}
	return e.rm.History(tx).Append(ctx, rec)
}

func sameSnapshot(a, b models.Entry) (bool, error) {
	sa, err := a.Snapshot()
	if err != nil {
		return false, err
	}
	sb, err := b.Snapshot()
	if err != nil {
		return false, err
	}
	return sa == sb, nil
}

// PullResult summarises a pull.
type PullResult struct {
	Fetched int `json:"fetched"`
	Applied int `json:"applied"`
	Kept    int `json:"kept"`
}

// Pull fetches entries matching f from the remote authority and merges each
// one into the local store.
func (e *Engine) Pull(ctx context.Context, f models.Filter) (*PullResult, error) {
	if e.remote == nil {
		return nil, common.ErrRemoteUnavailable
	}
	f.Limit = f.EffectiveLimit(e.opts.MaxListLimit)
	remote, err := e.remote.List(ctx, f)
	if err != nil {
		return nil, &common.DeliveryError{Err: err, Temporary: isTemporary(err)}
	}

	res := &PullResult{Fetched: len(remote)}
	for _, incoming := range remote {
		m, err := e.Merge(ctx, incoming)
		if err != nil {
			return res, err
		}
		if m.Applied {
			res.Applied++
		} else {
			res.Kept++
		}
	}

	if err := e.rm.Metadata(e.db).SetTime(ctx, metadata.KeyLastPullAt, e.clock()); err != nil {
		return res, err
	}
	e.logger.Info(ctx, "pull finished", "fetched", res.Fetched, "applied", res.Applied)
	return res, nil
}

// LastPullAt returns the time of the last successful pull, or the zero time.
func (e *Engine) LastPullAt(ctx context.Context) (time.Time, error) {
	return e.rm.Metadata(e.db).GetTime(ctx, metadata.KeyLastPullAt)
}

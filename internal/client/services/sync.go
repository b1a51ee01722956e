package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/braindock/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/dbx"
	"github.com/dmitrijs2005/braindock/internal/models"
	"golang.org/x/sync/errgroup"
)

// DrainResult reports the outcome of one delivery attempt. Err is a
// *common.DeliveryError when the remote rejected or could not be reached.
type DrainResult struct {
	QueueID  string            `json:"queue_id"`
	EntryID  string            `json:"entry_id"`
	Status   models.SyncStatus `json:"status"`
	RemoteID string            `json:"remote_id,omitempty"`
	Error    string            `json:"error,omitempty"`
	Err      error             `json:"-"`
}

// interruptedError is stored on items found in syncing by Recover.
const interruptedError = "drain interrupted"

func (e *Engine) newQueueItem(entryID string, at time.Time) (*models.SyncQueueItem, error) {
	id, err := e.newID()
	if err != nil {
		return nil, err
	}
	return &models.SyncQueueItem{
		ID:        id,
		EntryID:   entryID,
		Status:    models.SyncStatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// Enqueue makes sure entryID has a pending delivery intent. An existing
// pending item is returned as is and a failed one is moved back to pending.
// Synced and syncing entries are rejected with common.ErrInvalidTransition.
func (e *Engine) Enqueue(ctx context.Context, entryID string) (*models.SyncQueueItem, error) {
	if entryID == "" {
		return nil, common.Invalid("entry_id", "must not be empty")
	}
	unlock := e.locks.Lock(entryID)
	defer unlock()

	var out *models.SyncQueueItem
	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entry, err := e.rm.Entries(tx).GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		switch entry.SyncStatus {
		case models.SyncStatusSynced, models.SyncStatusSyncing:
			return fmt.Errorf("%w: entry %s is %s", common.ErrInvalidTransition, entryID, entry.SyncStatus)
		}
		queue := e.rm.SyncQueue(tx)

		item, err := queue.FindByEntry(ctx, entryID, models.SyncStatusPending)
		if err == nil {
			out = item
			return nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		now := e.clock()
		item, err = queue.FindByEntry(ctx, entryID, models.SyncStatusFailed)
		switch {
		case err == nil:
			if err := queue.Transition(ctx, item.ID, models.SyncStatusFailed, models.SyncStatusPending, "", now); err != nil {
				return err
			}
		case errors.Is(err, common.ErrNotFound):
			if item, err = e.newQueueItem(entryID, now); err != nil {
				return err
			}
			if err := queue.Insert(ctx, item); err != nil {
				return err
			}
		default:
			return err
		}

		if err := e.setEntryStatus(ctx, tx, entry, models.SyncStatusPending, now); err != nil {
			return err
		}
		out, err = queue.GetByID(ctx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug(ctx, "entry enqueued", "entry_id", entryID, "queue_id", out.ID)
	return out, nil
}

// setEntryStatus records a sync_status change on the entry with a local
// history record. The content and updated_at are left alone.
func (e *Engine) setEntryStatus(ctx context.Context, tx dbx.DBTX, entry *models.Entry, status models.SyncStatus, at time.Time) error {
	if entry.SyncStatus == status {
		return nil
	}
	if err := models.CheckTransition(entry.SyncStatus, status); err != nil {
		return fmt.Errorf("entry %s: %w", entry.ID, err)
	}
	before := *entry
	after := *entry
	after.SyncStatus = status
	if err := e.rm.Entries(tx).Upsert(ctx, &after); err != nil {
		return err
	}
	rec, err := e.history(entry.ID, models.HistorySourceLocal, &before, after, at)
	if err != nil {
		return err
	}
	if err := e.rm.History(tx).Append(ctx, rec); err != nil {
		return err
	}
	*entry = after
	return nil
}

// Drain delivers one pending queue item. The item moves to syncing, the
// entry is pushed with the given timeout (DrainTimeout when <= 0) and the
// item ends synced or failed. The remote call runs outside any local
// transaction and the final write is not cancelled with ctx.
func (e *Engine) Drain(ctx context.Context, queueID string, timeout time.Duration) (*DrainResult, error) {
	if queueID == "" {
		return nil, common.Invalid("queue_id", "must not be empty")
	}
	item, err := e.rm.SyncQueue(e.db).GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = e.opts.DrainTimeout
	}
	return e.drain(ctx, item.EntryID, queueID, timeout)
}

func (e *Engine) drain(ctx context.Context, entryID, queueID string, timeout time.Duration) (*DrainResult, error) {
	if e.remote == nil {
		return nil, common.ErrRemoteUnavailable
	}

	unlock := e.locks.Lock(entryID)
	defer unlock()

	var entry *models.Entry
	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		queue := e.rm.SyncQueue(tx)
		item, err := queue.GetByID(ctx, queueID)
		if err != nil {
			return err
		}
		if err := models.CheckTransition(item.Status, models.SyncStatusSyncing); err != nil {
			return err
		}
		if entry, err = e.rm.Entries(tx).GetByID(ctx, item.EntryID); err != nil {
			return err
		}
		if err := queue.Transition(ctx, queueID, models.SyncStatusPending, models.SyncStatusSyncing, "", e.clock()); err != nil {
			return err
		}
		syncing := *entry
		syncing.SyncStatus = models.SyncStatusSyncing
		if err := e.rm.Entries(tx).Upsert(ctx, &syncing); err != nil {
			return err
		}
		entry = &syncing
		return nil
	})
	if err != nil {
		return nil, err
	}

	pushCtx, cancel := context.WithTimeout(ctx, timeout)
	remoteID, pushErr := e.push(pushCtx, *entry)
	cancel()

	// The outcome must be recorded even if the caller has gone away.
	finalCtx := context.WithoutCancel(ctx)
	if pushErr != nil {
		derr := &common.DeliveryError{Err: pushErr, Temporary: isTemporary(pushErr)}
		if err := e.finishFailed(finalCtx, *entry, queueID, models.SyncStatusSyncing, derr.Error()); err != nil {
			return nil, err
		}
		e.logger.Warn(ctx, "delivery failed", "entry_id", entryID, "queue_id", queueID, "error", derr.Error(), "temporary", derr.Temporary)
		return &DrainResult{
			QueueID: queueID,
			EntryID: entryID,
			Status:  models.SyncStatusFailed,
			Error:   e.truncateError(derr.Error()),
			Err:     derr,
		}, nil
	}

	if err := e.finishSynced(finalCtx, *entry, queueID, models.SyncStatusSyncing, remoteID); err != nil {
		return nil, err
	}
	e.logger.Info(ctx, "entry synced", "entry_id", entryID, "queue_id", queueID, "remote_id", remoteID)
	return &DrainResult{
		QueueID:  queueID,
		EntryID:  entryID,
		Status:   models.SyncStatusSynced,
		RemoteID: remoteID,
	}, nil
}

// push calls the remote and gives up at ctx's deadline even if the remote
// ignores cancellation.
func (e *Engine) push(ctx context.Context, entry models.Entry) (string, error) {
	type result struct {
		id  string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		id, err := e.remote.Push(ctx, entry)
		ch <- result{id, err}
	}()
	select {
	case r := <-ch:
		if r.err == nil && r.id == "" {
			return "", errors.New("remote returned an empty id")
		}
		return r.id, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func isTemporary(err error) bool {
	return errors.Is(err, common.ErrRemoteUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// finishSynced moves the item to synced from `from` (pending or syncing),
// stores remoteID on the entry and bumps its updated_at.
func (e *Engine) finishSynced(ctx context.Context, before models.Entry, queueID string, from models.SyncStatus, remoteID string) error {
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := e.clock()
		queue := e.rm.SyncQueue(tx)
		if from == models.SyncStatusPending {
			if err := queue.Transition(ctx, queueID, models.SyncStatusPending, models.SyncStatusSyncing, "", now); err != nil {
				return err
			}
		}
		if err := queue.Transition(ctx, queueID, models.SyncStatusSyncing, models.SyncStatusSynced, "", now); err != nil {
			return err
		}
		after := before
		after.RemoteID = remoteID
		after.SyncStatus = models.SyncStatusSynced
		after.UpdatedAt = e.bump(before.UpdatedAt)
		if err := e.rm.Entries(tx).Upsert(ctx, &after); err != nil {
			return err
		}
		rec, err := e.history(before.ID, models.HistorySourceRemote, &before, after, now)
		if err != nil {
			return err
		}
		return e.rm.History(tx).Append(ctx, rec)
	})
}

// finishFailed moves the item to failed from `from` (pending or syncing)
// with the truncated error text.
func (e *Engine) finishFailed(ctx context.Context, before models.Entry, queueID string, from models.SyncStatus, errText string) error {
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := e.clock()
		queue := e.rm.SyncQueue(tx)
		if from == models.SyncStatusPending {
			if err := queue.Transition(ctx, queueID, models.SyncStatusPending, models.SyncStatusSyncing, "", now); err != nil {
				return err
			}
		}
		if err := queue.Transition(ctx, queueID, models.SyncStatusSyncing, models.SyncStatusFailed, e.truncateError(errText), now); err != nil {
			return err
		}
		after := before
		after.SyncStatus = models.SyncStatusFailed
		if err := e.rm.Entries(tx).Upsert(ctx, &after); err != nil {
			return err
		}
		rec, err := e.history(before.ID, models.HistorySourceLocal, &before, after, now)
		if err != nil {
			return err
		}
		return e.rm.History(tx).Append(ctx, rec)
	})
}

// DrainPending drains every pending item with at most DrainConcurrency
// deliveries in flight. Items taken by a concurrent drain are skipped.
func (e *Engine) DrainPending(ctx context.Context) ([]DrainResult, error) {
	if e.remote == nil {
		return nil, common.ErrRemoteUnavailable
	}
	items, err := e.rm.SyncQueue(e.db).List(ctx, models.SyncStatusPending)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make([]DrainResult, 0, len(items))
		g       errgroup.Group
	)
	g.SetLimit(e.opts.DrainConcurrency)
	for _, item := range items {
		g.Go(func() error {
			res, err := e.drain(ctx, item.EntryID, item.ID, e.opts.DrainTimeout)
			if errors.Is(err, common.ErrInvalidTransition) || errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, *res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	if err := e.rm.Metadata(e.db).SetTime(ctx, metadata.KeyLastDrainAt, e.clock()); err != nil {
		return results, err
	}
	return results, nil
}

// Retry moves a failed item back to pending.
func (e *Engine) Retry(ctx context.Context, queueID string) (*models.SyncQueueItem, error) {
	if queueID == "" {
		return nil, common.Invalid("queue_id", "must not be empty")
	}
	item, err := e.rm.SyncQueue(e.db).GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(item.EntryID)
	defer unlock()

	var out *models.SyncQueueItem
	err = dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := e.clock()
		queue := e.rm.SyncQueue(tx)
		if err := queue.Transition(ctx, queueID, models.SyncStatusFailed, models.SyncStatusPending, "", now); err != nil {
			return err
		}
		entry, err := e.rm.Entries(tx).GetByID(ctx, item.EntryID)
		if err != nil {
			return err
		}
		if err := e.setEntryStatus(ctx, tx, entry, models.SyncStatusPending, now); err != nil {
			return err
		}
		out, err = queue.GetByID(ctx, queueID)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info(ctx, "retry scheduled", "entry_id", out.EntryID, "queue_id", queueID, "attempts", out.Attempts)
	return out, nil
}

// RetryFailed moves every failed item back to pending.
func (e *Engine) RetryFailed(ctx context.Context) ([]models.SyncQueueItem, error) {
	items, err := e.rm.SyncQueue(e.db).List(ctx, models.SyncStatusFailed)
	if err != nil {
		return nil, err
	}
	out := make([]models.SyncQueueItem, 0, len(items))
	for _, item := range items {
		retried, err := e.Retry(ctx, item.ID)
		if errors.Is(err, common.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, *retried)
	}
	return out, nil
}

// MarkSynced records an out-of-band delivery of a pending or syncing item.
func (e *Engine) MarkSynced(ctx context.Context, queueID, remoteID string) (*models.SyncQueueItem, error) {
	if remoteID == "" {
		return nil, common.Invalid("remote_id", "must not be empty")
	}
	return e.mark(ctx, queueID, func(ctx context.Context, entry models.Entry, from models.SyncStatus) error {
		return e.finishSynced(ctx, entry, queueID, from, remoteID)
	})
}

// MarkSyncFailed records an out-of-band delivery failure of a pending or
// syncing item.
func (e *Engine) MarkSyncFailed(ctx context.Context, queueID, errText string) (*models.SyncQueueItem, error) {
	if errText == "" {
		return nil, common.Invalid("error", "must not be empty")
	}
	return e.mark(ctx, queueID, func(ctx context.Context, entry models.Entry, from models.SyncStatus) error {
		return e.finishFailed(ctx, entry, queueID, from, errText)
	})
}

func (e *Engine) mark(ctx context.Context, queueID string, finish func(context.Context, models.Entry, models.SyncStatus) error) (*models.SyncQueueItem, error) {
	if queueID == "" {
		return nil, common.Invalid("queue_id", "must not be empty")
	}
	queue := e.rm.SyncQueue(e.db)
	item, err := queue.GetByID(ctx, queueID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(item.EntryID)
	defer unlock()

	if item, err = queue.GetByID(ctx, queueID); err != nil {
		return nil, err
	}
	if item.Status != models.SyncStatusPending && item.Status != models.SyncStatusSyncing {
		return nil, fmt.Errorf("%w: %s is %s", common.ErrInvalidTransition, queueID, item.Status)
	}
	entry, err := e.rm.Entries(e.db).GetByID(ctx, item.EntryID)
	if err != nil {
		return nil, err
	}
	if err := finish(ctx, *entry, item.Status); err != nil {
		return nil, err
	}
	return queue.GetByID(ctx, queueID)
}

// Recover fails items left in syncing by an interrupted process so they can
// be retried. It returns the number of recovered items.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	items, err := e.rm.SyncQueue(e.db).List(ctx, models.SyncStatusSyncing)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range items {
		_, err := e.MarkSyncFailed(ctx, item.ID, interruptedError)
		if errors.Is(err, common.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		e.logger.Warn(ctx, "recovered interrupted deliveries", "count", n)
	}
	return n, nil
}

// ListSyncQueue lists queue items oldest first; an empty status lists all.
func (e *Engine) ListSyncQueue(ctx context.Context, status models.SyncStatus) ([]models.SyncQueueItem, error) {
	if status != "" {
		if _, err := models.ParseSyncStatus(string(status)); err != nil {
			return nil, err
		}
	}
	return e.rm.SyncQueue(e.db).List(ctx, status)
}

// ListHistory returns the history of entryID, or the whole log when it is
// empty.
func (e *Engine) ListHistory(ctx context.Context, entryID string) ([]models.HistoryRecord, error) {
	if entryID != "" {
		if _, err := e.rm.Entries(e.db).GetByID(ctx, entryID); err != nil {
			return nil, err
		}
	}
	return e.rm.History(e.db).List(ctx, entryID)
}

package syncqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/dbx"
	"github.com/dmitrijs2005/braindock/internal/models"
)

const itemColumns = `id, entry_id, status, created_at, updated_at, last_error, attempts`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, item *models.SyncQueueItem) error {
	query := `INSERT INTO sync_queue (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.EntryID, string(item.Status), dbx.Micros(item.CreatedAt), dbx.Micros(item.UpdatedAt),
		sql.NullString{String: item.LastError, Valid: item.LastError != ""}, item.Attempts)
	if err != nil {
		return common.Storage("insert sync queue item", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.SyncQueueItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM sync_queue WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync queue item %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync queue item %s: %w", id, err)
	}
	return item, nil
}

func (r *SQLiteRepository) FindByEntry(ctx context.Context, entryID string, status models.SyncStatus) (*models.SyncQueueItem, error) {
	query := `SELECT ` + itemColumns + ` FROM sync_queue WHERE entry_id = ? AND status = ?
		ORDER BY updated_at DESC, id DESC LIMIT 1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, entryID, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s sync queue item for entry %s: %w", status, entryID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sync queue item: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) List(ctx context.Context, status models.SyncStatus) ([]models.SyncQueueItem, error) {
	query := `SELECT ` + itemColumns + ` FROM sync_queue`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync queue: %w", err)
	}
	defer rows.Close()

	var result []models.SyncQueueItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync queue item: %w", err)
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Transition(ctx context.Context, id string, from, to models.SyncStatus, lastError string, at time.Time) error {
	if err := models.CheckTransition(from, to); err != nil {
		return err
	}
	query := `UPDATE sync_queue SET
			status = ?,
			updated_at = ?,
			last_error = CASE ? WHEN 'synced' THEN NULL WHEN 'failed' THEN ? ELSE last_error END,
			attempts = attempts + CASE ? WHEN 'syncing' THEN 1 ELSE 0 END
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(to), dbx.Micros(at), string(to), lastError, string(to), id, string(from))
	if err != nil {
		return common.Storage("transition sync queue item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.Storage("transition sync queue item", err)
	}
	if n == 1 {
		return nil
	}

	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("sync queue item %s is %s, not %s: %w", id, cur.Status, from, common.ErrInvalidTransition)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.SyncQueueItem, error) {
	var (
		item                 models.SyncQueueItem
		createdAt, updatedAt int64
		lastError            sql.NullString
	)
	if err := s.Scan(&item.ID, &item.EntryID, &item.Status, &createdAt, &updatedAt, &lastError, &item.Attempts); err != nil {
		return nil, err
	}
	item.CreatedAt = dbx.FromMicros(createdAt)
	item.UpdatedAt = dbx.FromMicros(updatedAt)
	item.LastError = lastError.String
	return &item, nil
}

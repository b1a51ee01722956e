package history

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/dbx"
	"github.com/dmitrijs2005/braindock/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, rec *models.HistoryRecord) error {
	query := `INSERT INTO history (id, entry_id, source, before_json, after_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.EntryID, string(rec.Source), rec.BeforeJSON, rec.AfterJSON, dbx.Micros(rec.CreatedAt))
	if err != nil {
		return common.Storage("append history record", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, entryID string) ([]models.HistoryRecord, error) {
	query := `SELECT id, entry_id, source, before_json, after_json, created_at FROM history`
	var args []any
	if entryID != "" {
		query += ` WHERE entry_id = ?`
		args = append(args, entryID)
	}
	query += ` ORDER BY created_at, seq`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select history: %w", err)
	}
	defer rows.Close()

	var result []models.HistoryRecord
	for rows.Next() {
		var (
			rec       models.HistoryRecord
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.EntryID, &rec.Source, &rec.BeforeJSON, &rec.AfterJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		rec.CreatedAt = dbx.FromMicros(createdAt)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

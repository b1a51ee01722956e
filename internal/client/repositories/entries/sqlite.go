package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/dbx"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/search"
)

const entryColumns = `id, declared_type, title, body, tags, occurred_at, sensitivity, payload,
	created_at, updated_at, sync_status, remote_id`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry) error {
	args, err := entryArgs(e)
	if err != nil {
		return err
	}
	query := `INSERT INTO entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return common.Storage("insert entry", err)
	}
	return nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.Entry) error {
	args, err := entryArgs(e)
	if err != nil {
		return err
	}
	query := `INSERT INTO entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			tags = excluded.tags,
			occurred_at = excluded.occurred_at,
			sensitivity = excluded.sensitivity,
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			remote_id = excluded.remote_id`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return common.Storage("upsert entry", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) List(ctx context.Context, f models.Filter, limit int) ([]models.Entry, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Types) > 0 {
		where = append(where, "declared_type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if f.From != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, dbx.Micros(*f.From))
	}
	if f.To != nil {
		where = append(where, "occurred_at <= ?")
		args = append(args, dbx.Micros(*f.To))
	}
	if f.Sensitivity != "" {
		where = append(where, "sensitivity = ?")
		args = append(args, string(f.Sensitivity))
	}
	for _, tag := range models.NormalizeTags(f.Tags) {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(entries.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SaveSearchDocument(ctx context.Context, doc search.Document) error {
	query := `INSERT INTO search_tokens (entry_id, text, tokens) VALUES (?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET text = excluded.text, tokens = excluded.tokens
		WHERE search_tokens.text <> excluded.text`
	if _, err := r.db.ExecContext(ctx, query, doc.EntryID, doc.Text, strings.Join(doc.Tokens, " ")); err != nil {
		return common.Storage("save search document", err)
	}
	return nil
}

func (r *SQLiteRepository) SearchDocuments(ctx context.Context) (map[string]search.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT entry_id, text, tokens FROM search_tokens`)
	if err != nil {
		return nil, fmt.Errorf("failed to select search documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]search.Document)
	for rows.Next() {
		var doc search.Document
		var tokens string
		if err := rows.Scan(&doc.EntryID, &doc.Text, &tokens); err != nil {
			return nil, fmt.Errorf("failed to scan search document: %w", err)
		}
		doc.Tokens = strings.Fields(tokens)
		docs[doc.EntryID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e                                models.Entry
		tags, payload                    string
		occurredAt, createdAt, updatedAt int64
		remoteID                         sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Type, &e.Title, &e.Body, &tags, &occurredAt, &e.Sensitivity, &payload,
		&createdAt, &updatedAt, &e.SyncStatus, &remoteID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", e.ID, err)
	}
	p, err := models.DecodePayload(e.Type, []byte(payload))
	if err != nil {
		return nil, fmt.Errorf("decode payload of %s: %w", e.ID, err)
	}
	e.Payload = p
	e.OccurredAt = dbx.FromMicros(occurredAt)
	e.CreatedAt = dbx.FromMicros(createdAt)
	e.UpdatedAt = dbx.FromMicros(updatedAt)
	e.RemoteID = remoteID.String
	return &e, nil
}

func entryArgs(e *models.Entry) ([]any, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags of %s: %w", e.ID, err)
	}
	payload, err := models.MarshalPayload(e.Payload)
	if err != nil {
		return nil, err
	}
	remoteID := sql.NullString{String: e.RemoteID, Valid: e.RemoteID != ""}
	return []any{
		e.ID, string(e.Type), e.Title, e.Body, string(tagsJSON), dbx.Micros(e.OccurredAt),
		string(e.Sensitivity), string(payload), dbx.Micros(e.CreatedAt), dbx.Micros(e.UpdatedAt),
		string(e.SyncStatus), remoteID,
	}, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

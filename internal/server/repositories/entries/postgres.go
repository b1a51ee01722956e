package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/lww"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/jackc/pgx/v5"
)

// PostgresRepository implements Repository over a PgxPool.
type PostgresRepository struct {
	pool PgxPool
}

func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const (
	selectForUpdate = `SELECT remote_id, doc FROM remote_entries WHERE id=$1 FOR UPDATE`
	insertEntry     = `INSERT INTO remote_entries (id, remote_id, declared_type, sensitivity, occurred_at, updated_at, tags, doc) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	updateEntry     = `UPDATE remote_entries SET sensitivity=$2, occurred_at=$3, updated_at=$4, tags=$5, doc=$6 WHERE id=$1`
	insertAudit     = `INSERT INTO remote_entry_audit (entry_id, outcome, before_doc, after_doc, created_at) VALUES ($1,$2,$3,$4,$5)`
)

// Push runs the read-decide-write cycle in one transaction with the row
// locked, so concurrent pushes of the same entry serialise on the server.
// Only a winning push writes; the update and its audit row commit together.
func (r *PostgresRepository) Push(ctx context.Context, e models.Entry, remoteID string, at time.Time) (res PushResult, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return PushResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("commit: %w", e)
		}
	}()

	var (
		curRemoteID string
		curDoc      []byte
	)
	scanErr := tx.QueryRow(ctx, selectForUpdate, e.ID).Scan(&curRemoteID, &curDoc)
	switch {
	case errors.Is(scanErr, pgx.ErrNoRows):
		doc, tags, err := encode(e, remoteID)
		if err != nil {
			return PushResult{}, err
		}
		if _, err = tx.Exec(ctx, insertEntry,
			e.ID, remoteID, string(e.Type), string(e.Sensitivity), e.OccurredAt, e.UpdatedAt, tags, doc); err != nil {
			return PushResult{}, fmt.Errorf("insert entry: %w", err)
		}
		if _, err = tx.Exec(ctx, insertAudit, e.ID, lww.TakeIncoming.String(), nil, doc, at); err != nil {
			return PushResult{}, fmt.Errorf("insert audit: %w", err)
		}
		return PushResult{RemoteID: remoteID, Outcome: lww.TakeIncoming}, nil
	case scanErr != nil:
		return PushResult{}, fmt.Errorf("select entry: %w", scanErr)
	}

	var current models.Entry
	if err = json.Unmarshal(curDoc, &current); err != nil {
		return PushResult{}, fmt.Errorf("decode stored entry %s: %w", e.ID, err)
	}

	outcome := lww.Decide(current, e)
	if outcome != lww.TakeIncoming {
		return PushResult{RemoteID: curRemoteID, Outcome: outcome}, nil
	}

	doc, tags, err := encode(e, curRemoteID)
	if err != nil {
		return PushResult{}, err
	}
	if _, err = tx.Exec(ctx, updateEntry,
		e.ID, string(e.Sensitivity), e.OccurredAt, e.UpdatedAt, tags, doc); err != nil {
		return PushResult{}, fmt.Errorf("update entry: %w", err)
	}
	if _, err = tx.Exec(ctx, insertAudit, e.ID, outcome.String(), curDoc, doc, at); err != nil {
		return PushResult{}, fmt.Errorf("insert audit: %w", err)
	}
	return PushResult{RemoteID: curRemoteID, Outcome: outcome}, nil
}

func encode(e models.Entry, remoteID string) (doc, tags []byte, err error) {
	e.RemoteID = remoteID
	e.SyncStatus = ""
	if doc, err = json.Marshal(e); err != nil {
		return nil, nil, fmt.Errorf("encode entry %s: %w", e.ID, err)
	}
	t := e.Tags
	if t == nil {
		t = []string{}
	}
	if tags, err = json.Marshal(t); err != nil {
		return nil, nil, fmt.Errorf("encode tags %s: %w", e.ID, err)
	}
	return doc, tags, nil
}

func decode(remoteID string, doc []byte) (models.Entry, error) {
	var e models.Entry
	if err := json.Unmarshal(doc, &e); err != nil {
		return models.Entry{}, fmt.Errorf("decode stored entry: %w", err)
	}
	e.RemoteID = remoteID
	e.SyncStatus = models.SyncStatusSynced
	return e, nil
}

// GetByID returns the stored copy or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	var (
		remoteID string
		doc      []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT remote_id, doc FROM remote_entries WHERE id=$1`, id).Scan(&remoteID, &doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("select entry: %w", err)
	}
	e, err := decode(remoteID, doc)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns stored entries matching f, newest occurrence first.
func (r *PostgresRepository) List(ctx context.Context, f models.Filter, limit int) ([]models.Entry, error) {
	query, args := buildListQuery(f, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := []models.Entry{}
	for rows.Next() {
		var (
			remoteID string
			doc      []byte
		)
		if err := rows.Scan(&remoteID, &doc); err != nil {
			return nil, err
		}
		e, err := decode(remoteID, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func buildListQuery(f models.Filter, limit int) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		where = append(where, "declared_type = ANY("+arg(types)+")")
	}
	if f.From != nil {
		where = append(where, "occurred_at >= "+arg(f.From.UTC()))
	}
	if f.To != nil {
		where = append(where, "occurred_at <= "+arg(f.To.UTC()))
	}
	if len(f.Tags) > 0 {
		tags, _ := json.Marshal(f.Tags)
		where = append(where, "tags @> "+arg(string(tags))+"::jsonb")
	}
	if f.Sensitivity != "" {
		where = append(where, "sensitivity = "+arg(string(f.Sensitivity)))
	}

	var b strings.Builder
	b.WriteString("SELECT remote_id, doc FROM remote_entries")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at DESC, id DESC LIMIT ")
	b.WriteString(arg(limit))
	return b.String(), args
}

// Ping checks database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

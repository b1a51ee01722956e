package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/braindock/internal/client/migrations"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var t0 = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	_, err = db.Exec(`INSERT INTO entries (id, declared_type, occurred_at, sensitivity, payload, created_at, updated_at, sync_status)
		VALUES ('e1', 'thought', 0, 'internal', '{"note":"n"}', 0, 0, 'pending'),
		       ('e2', 'thought', 0, 'internal', '{"note":"n"}', 0, 0, 'pending')`)
	require.NoError(t, err)
	return db
}

func record(id, entryID string, source models.HistorySource, at time.Time) *models.HistoryRecord {
	return &models.HistoryRecord{
		ID: id, EntryID: entryID, Source: source,
		BeforeJSON: "null", AfterJSON: `{"id":"` + entryID + `"}`, CreatedAt: at,
	}
}

func TestAppendAndList_Order(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// h3 shares h2's timestamp and must come after it.
	require.NoError(t, r.Append(ctx, record("h2", "e1", models.HistorySourceRemote, t0.Add(time.Second))))
	require.NoError(t, r.Append(ctx, record("h1", "e1", models.HistorySourceLocal, t0)))
	require.NoError(t, r.Append(ctx, record("h3", "e1", models.HistorySourceLocal, t0.Add(time.Second))))
	require.NoError(t, r.Append(ctx, record("x1", "e2", models.HistorySourceLocal, t0)))

	got, err := r.List(ctx, "e1")
	require.NoError(t, err)
	ids := []string{}
	for _, rec := range got {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"h1", "h2", "h3"}, ids)
	assert.Equal(t, *record("h1", "e1", models.HistorySourceLocal, t0), got[0])

	all, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestHistory_IsAppendOnly(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, r.Append(ctx, record("h1", "e1", models.HistorySourceLocal, t0)))

	_, err := db.Exec(`UPDATE history SET after_json = '{}' WHERE id = 'h1'`)
	require.ErrorContains(t, err, "append-only")
	_, err = db.Exec(`DELETE FROM history WHERE id = 'h1'`)
	require.ErrorContains(t, err, "append-only")

	err = r.Append(ctx, record("h1", "e1", models.HistorySourceLocal, t0))
	require.ErrorIs(t, err, common.ErrStorage)
}

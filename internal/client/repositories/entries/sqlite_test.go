package entries

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/braindock/internal/client/migrations"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/search"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))
	return db
}

var base = time.Date(2025, 4, 1, 9, 30, 0, 123456000, time.UTC)

func entry(id string, typ models.EntryType, occurred time.Time, tags ...string) *models.Entry {
	p, _ := models.DefaultPayload(typ, "text of "+id)
	return &models.Entry{
		ID:          id,
		Type:        typ,
		Title:       "title " + id,
		Body:        "body " + id,
		Tags:        tags,
		OccurredAt:  occurred,
		Sensitivity: models.SensitivityInternal,
		Payload:     p,
		CreatedAt:   base,
		UpdatedAt:   base,
		SyncStatus:  models.SyncStatusPending,
	}
}

func TestInsertAndGetByID_RoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := entry("e1", models.EntryTypeTodo, base, "work", "q2")
	require.NoError(t, r.Insert(ctx, e))

	got, err := r.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestInsert_DuplicateIsStorageError(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, entry("dup", models.EntryTypeThought, base)))
	err := r.Insert(ctx, entry("dup", models.EntryTypeThought, base))
	require.ErrorIs(t, err, common.ErrStorage)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	_, err := NewSQLiteRepository(db).GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpsert_ReplacesMutableColumns(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := entry("u1", models.EntryTypeThought, base)
	require.NoError(t, r.Upsert(ctx, e))

	e.Title = "changed"
	e.Tags = []string{"x"}
	e.UpdatedAt = base.Add(time.Microsecond)
	e.SyncStatus = models.SyncStatusSynced
	e.RemoteID = "r-1"
	require.NoError(t, r.Upsert(ctx, e))

	got, err := r.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestList_Filters(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	seed := []*models.Entry{
		entry("a", models.EntryTypeTodo, base, "a"),
		entry("b", models.EntryTypeTodo, base.Add(time.Hour), "a", "b"),
		entry("c", models.EntryTypeJournal, base.Add(2*time.Hour), "b", "a"),
		entry("d", models.EntryTypeThought, base.Add(3*time.Hour), "b"),
	}
	seed[3].Sensitivity = models.SensitivitySensitive
	for _, e := range seed {
		require.NoError(t, r.Insert(ctx, e))
	}

	from := base.Add(time.Hour)
	to := base.Add(2 * time.Hour)
	tests := []struct {
		name  string
		f     models.Filter
		limit int
		want  []string
	}{
		{"all newest first", models.Filter{}, 0, []string{"d", "c", "b", "a"}},
		{"both tags required", models.Filter{Tags: []string{"a", "b"}}, 0, []string{"c", "b"}},
		{"types", models.Filter{Types: []models.EntryType{models.EntryTypeTodo}}, 0, []string{"b", "a"}},
		{"inclusive range", models.Filter{From: &from, To: &to}, 0, []string{"c", "b"}},
		{"sensitivity", models.Filter{Sensitivity: models.SensitivitySensitive}, 0, []string{"d"}},
		{"limit", models.Filter{}, 2, []string{"d", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.List(ctx, tt.f, tt.limit)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSearchDocuments_SaveAndLoad(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := entry("s1", models.EntryTypeThought, base, "ideas")
	require.NoError(t, r.Insert(ctx, e))
	doc := search.BuildDocument(*e)
	require.NoError(t, r.SaveSearchDocument(ctx, doc))

	e.Body = "rewritten"
	doc2 := search.BuildDocument(*e)
	require.NoError(t, r.SaveSearchDocument(ctx, doc2))

	docs, err := r.SearchDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc2.Text, docs["s1"].Text)
	assert.Equal(t, doc2.Tokens, docs["s1"].Tokens)
}

func TestInsert_ExecErrorIsStorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO entries").WillReturnError(errors.New("disk full"))

	err = NewSQLiteRepository(db).Insert(context.Background(), entry("x", models.EntryTypeThought, base))
	require.ErrorIs(t, err, common.ErrStorage)
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM entries").WillReturnError(errors.New("boom"))

	_, err = NewSQLiteRepository(db).List(context.Background(), models.Filter{}, 10)
	require.ErrorContains(t, err, "failed to select entries")
	require.NoError(t, mock.ExpectationsWereMet())
}

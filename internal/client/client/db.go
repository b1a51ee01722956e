package client

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/braindock/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/braindock/internal/filex"
	_ "modernc.org/sqlite"
)

// SQLiteDSN builds a modernc.org/sqlite DSN for path with the pragmas the
// local store relies on. Write transactions take the lock up front.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if !isMemory(path) {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	q.Set("_txlock", "immediate")

	name := path
	if !isMemory(path) && !strings.HasPrefix(path, "file:") {
		name = "file:" + path
	}
	return name + "?" + q.Encode()
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// InitDatabase opens the local store at path and applies migrations. The
// pool is limited to one connection: SQLite has a single writer and the
// engine's transactions must not wait on a second connection.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}

	if err := repomanager.NewSQLiteRepositoryManager().RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	return db, nil
}

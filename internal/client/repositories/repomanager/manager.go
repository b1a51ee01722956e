// Package repomanager vends the SQLite repositories of the local store bound
// to either *sql.DB or *sql.Tx, and applies the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/braindock/internal/client/repositories/entries"
	"github.com/dmitrijs2005/braindock/internal/client/repositories/history"
	"github.com/dmitrijs2005/braindock/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/braindock/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/braindock/internal/dbx"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Entries(db dbx.DBTX) entries.Repository
	SyncQueue(db dbx.DBTX) syncqueue.Repository
	History(db dbx.DBTX) history.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}

// Package dbx provides tiny DB abstractions shared by the SQLite
// repositories: a minimal interface (DBTX) implemented by both *sql.DB and
// *sql.Tx, a helper to run functions inside a transaction, and the
// timestamp encoding used for INTEGER time columns.
package dbx

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := m.Entries(tx).Insert(ctx, e); err != nil {
//	        return err
//	    }
//	    return m.SyncQueue(tx).Insert(ctx, item)
//	})
//
// fn must only use tx: the local store runs on a single connection, so a
// query on db inside fn would block forever.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Micros encodes t as unix microseconds for INTEGER columns.
func Micros(t time.Time) int64 {
	return t.UnixMicro()
}

// FromMicros decodes an INTEGER column written by Micros as a UTC time.
func FromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// NullMicros is Micros for an optional timestamp.
func NullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: Micros(*t), Valid: true}
}

// Package entries provides the client-side persistence layer for entries
// and their derived search documents.
//
// # Data Model
//
// Each entry row carries the user-facing fields, the JSON encoded payload,
// the tag list as a JSON array and the sync bookkeeping (sync_status,
// remote_id). Timestamps are INTEGER unix microseconds (see dbx.Micros).
// The search_tokens table holds one normalised document per entry.
//
// # Concurrency
//
// The repository is a thin mapper over dbx.DBTX. Bind it to a *sql.Tx
// (via repomanager) when a write must commit together with queue and
// history rows.
//
// Typical Usage
//
//	repo := entries.NewSQLiteRepository(db)
//	_ = repo.Insert(ctx, &entry)
//	one, _ := repo.GetByID(ctx, id)
//	list, _ := repo.List(ctx, models.Filter{Tags: []string{"work"}}, 1000)
//	_ = repo.SaveSearchDocument(ctx, search.BuildDocument(entry))
package entries

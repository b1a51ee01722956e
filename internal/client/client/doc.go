// Package client contains the client-side building blocks that sit between
// the reconciliation engine and the outside world.
//
// # Overview
//
// The package provides:
//  1. The RemoteAuthority contract the engine pushes to and pulls from:
//     Push (idempotent on id and updated_at), Read and List, plus the
//     optional Pinger used as an online indicator.
//  2. Three implementations: GRPCClient talks to braindock-server,
//     PostgresAuthority runs the server's AuthorityService in-process over a
//     pgx pool, and S3Authority keeps one JSON object per entry in a bucket.
//  3. Local persistence bootstrap (InitDatabase) for the CLI, opening the
//     SQLite store and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures are mapped onto the common sentinels so callers can use
// errors.Is: common.ErrRemoteUnavailable, common.ErrUnauthorized,
// common.ErrNotFound and common.ErrValidation.
//
// # Concurrency
//
// All implementations are safe for concurrent use and honour context
// cancellation.
package client

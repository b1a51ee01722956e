// Package cli is the braindock command-line client.
//
// Every command runs against the local store through the reconciliation
// engine; the remote authority is only contacted by sync, pull, watch and
// the --remote variants of get, list and search. The shell command reads
// lines from stdin and dispatches them to the same command tree while a
// background watcher tracks whether the remote is reachable.
//
// Output is JSON when --json is given or stdout is not a terminal, and an
// aligned table otherwise.
package cli

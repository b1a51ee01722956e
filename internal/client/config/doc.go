// Package config loads runtime configuration for the braindock CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with -c/--config. Files ending in .yaml or
//     .yml are read as YAML, everything else as JSON.
//  3. NEON_DATABASE_URL, used as the Postgres DSN when none is configured.
//  4. Command-line flags that were set explicitly.
//
// # File schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "database_path": "braindock.db",
//	  "remote": "grpc",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "...",
//	  "drain_timeout": "10s",
//	  "sync_interval": "1m"
//	}
package config

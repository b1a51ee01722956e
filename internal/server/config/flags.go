package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/braindock/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t string   print an access token for this subject and exit
//	-m int      hard cap on List results
//	-l string   log level (debug, info, warn, error)
//
// The arguments are first narrowed with flagx.FilterArgs so the config file
// flag and unknown flags do not make parsing fail.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-m", "-l"})

	fs := flag.NewFlagSet("braindock-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.StringVar(&config.IssueTokenFor, "t", config.IssueTokenFor, "issue an access token for the subject and exit")
	fs.IntVar(&config.MaxListLimit, "m", config.MaxListLimit, "max entries returned by List")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}

package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and ApplyFlags.
const (
	FlagConfig           = "config"
	FlagDatabase         = "db"
	FlagRemote           = "remote"
	FlagServer           = "server"
	FlagToken            = "token"
	FlagPostgresDSN      = "postgres-dsn"
	FlagS3Bucket         = "s3-bucket"
	FlagS3Endpoint       = "s3-endpoint"
	FlagDrainTimeout     = "drain-timeout"
	FlagDrainConcurrency = "drain-concurrency"
	FlagSyncInterval     = "sync-interval"
	FlagLogLevel         = "log-level"
)

// RegisterFlags declares the configuration flags on fs. The defaults shown
// in help come from LoadDefaults; only flags set by the user are applied.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML config file")
	fs.StringP(FlagDatabase, "d", d.DatabasePath, "path of the local SQLite store")
	fs.StringP(FlagRemote, "r", d.Remote, "remote authority: none, grpc, postgres or s3")
	fs.StringP(FlagServer, "a", d.ServerEndpointAddr, "address:port of the braindock server")
	fs.String(FlagToken, "", "access token for the braindock server")
	fs.String(FlagPostgresDSN, "", "Postgres DSN for the postgres remote")
	fs.String(FlagS3Bucket, "", "bucket for the s3 remote")
	fs.String(FlagS3Endpoint, "", "custom S3 endpoint, e.g. a MinIO URL")
	fs.Duration(FlagDrainTimeout, d.DrainTimeout, "timeout of one delivery")
	fs.Int(FlagDrainConcurrency, d.DrainConcurrency, "deliveries in flight during a drain")
	fs.Duration(FlagSyncInterval, d.SyncInterval, "drain interval of watch and shell")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn or error")
}

// ApplyFlags overlays the flags that were set explicitly on fs.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	strs := map[string]*string{
		FlagDatabase:    &c.DatabasePath,
		FlagRemote:      &c.Remote,
		FlagServer:      &c.ServerEndpointAddr,
		FlagToken:       &c.AccessToken,
		FlagPostgresDSN: &c.PostgresDSN,
		FlagS3Bucket:    &c.S3Bucket,
		FlagS3Endpoint:  &c.S3BaseEndpoint,
		FlagLogLevel:    &c.LogLevel,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed(FlagDrainTimeout) {
		v, err := fs.GetDuration(FlagDrainTimeout)
		if err != nil {
			return err
		}
		c.DrainTimeout = v
	}
	if fs.Changed(FlagSyncInterval) {
		v, err := fs.GetDuration(FlagSyncInterval)
		if err != nil {
			return err
		}
		c.SyncInterval = v
	}
	if fs.Changed(FlagDrainConcurrency) {
		v, err := fs.GetInt(FlagDrainConcurrency)
		if err != nil {
			return err
		}
		c.DrainConcurrency = v
	}
	return nil
}

package config

import (
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
)

// Remote authority kinds.
const (
	RemoteNone     = "none"
	RemoteGRPC     = "grpc"
	RemotePostgres = "postgres"
	RemoteS3       = "s3"
)

// NeonDSNEnv names the environment variable consulted for the Postgres DSN.
const NeonDSNEnv = "NEON_DATABASE_URL"

// Config holds runtime settings for the braindock CLI.
type Config struct {
	DatabasePath string
	Remote       string

	ServerEndpointAddr string
	AccessToken        string

	PostgresDSN            string
	PostgresConnectTimeout time.Duration

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3Prefix       string

	DrainTimeout     time.Duration
	DrainConcurrency int
	SyncInterval     time.Duration
	MaxListLimit     int
	MaxErrorLength   int

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "braindock.db"
	c.Remote = RemoteNone
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.PostgresConnectTimeout = 15 * time.Second
	c.S3Region = "us-east-1"
	c.S3Prefix = "braindock"
	c.DrainTimeout = 10 * time.Second
	c.DrainConcurrency = 4
	c.SyncInterval = time.Minute
	c.MaxListLimit = 1000
	c.MaxErrorLength = common.DefaultMaxErrorLength
	c.LogLevel = "warn"
}

// Load applies defaults, the config file at path (if any) and the
// environment looked up through getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if cfg.PostgresDSN == "" && getenv != nil {
		cfg.PostgresDSN = getenv(NeonDSNEnv)
	}
	return cfg, nil
}

// Validate checks the settings needed by the selected remote.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return common.Invalid("database_path", "must not be empty")
	}
	switch c.Remote {
	case RemoteNone:
	case RemoteGRPC:
		if c.ServerEndpointAddr == "" {
			return common.Invalid("server_endpoint_addr", "required for remote %s", c.Remote)
		}
	case RemotePostgres:
		if c.PostgresDSN == "" {
			return common.Invalid("postgres_dsn", "required for remote %s (or set %s)", c.Remote, NeonDSNEnv)
		}
	case RemoteS3:
		if c.S3Bucket == "" {
			return common.Invalid("s3_bucket", "required for remote %s", c.Remote)
		}
	default:
		return common.Invalid("remote", "unknown remote %q", c.Remote)
	}
	if c.DrainConcurrency < 1 {
		return common.Invalid("drain_concurrency", "must be at least 1")
	}
	if c.MaxListLimit < 1 {
		return common.Invalid("max_list_limit", "must be at least 1")
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/braindock/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Absent fields keep
// the current value.
type FileConfig struct {
	DatabasePath           *string         `json:"database_path" yaml:"database_path"`
	Remote                 *string         `json:"remote" yaml:"remote"`
	ServerEndpointAddr     *string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	AccessToken            *string         `json:"access_token" yaml:"access_token"`
	PostgresDSN            *string         `json:"postgres_dsn" yaml:"postgres_dsn"`
	PostgresConnectTimeout *timex.Duration `json:"postgres_connect_timeout" yaml:"postgres_connect_timeout"`
	S3Bucket               *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region               *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint         *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey            *string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey            *string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Prefix               *string         `json:"s3_prefix" yaml:"s3_prefix"`
	DrainTimeout           *timex.Duration `json:"drain_timeout" yaml:"drain_timeout"`
	DrainConcurrency       *int            `json:"drain_concurrency" yaml:"drain_concurrency"`
	SyncInterval           *timex.Duration `json:"sync_interval" yaml:"sync_interval"`
	MaxListLimit           *int            `json:"max_list_limit" yaml:"max_list_limit"`
	MaxErrorLength         *int            `json:"max_error_length" yaml:"max_error_length"`
	LogLevel               *string         `json:"log_level" yaml:"log_level"`
}

func parseFile(config *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		err = json.Unmarshal(b, c)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	setIf(&config.DatabasePath, c.DatabasePath)
	setIf(&config.Remote, c.Remote)
	setIf(&config.ServerEndpointAddr, c.ServerEndpointAddr)
	setIf(&config.AccessToken, c.AccessToken)
	setIf(&config.PostgresDSN, c.PostgresDSN)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.S3AccessKey, c.S3AccessKey)
	setIf(&config.S3SecretKey, c.S3SecretKey)
	setIf(&config.S3Prefix, c.S3Prefix)
	setIf(&config.DrainConcurrency, c.DrainConcurrency)
	setIf(&config.MaxListLimit, c.MaxListLimit)
	setIf(&config.MaxErrorLength, c.MaxErrorLength)
	setIf(&config.LogLevel, c.LogLevel)
	setDuration(&config.PostgresConnectTimeout, c.PostgresConnectTimeout)
	setDuration(&config.DrainTimeout, c.DrainTimeout)
	setDuration(&config.SyncInterval, c.SyncInterval)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

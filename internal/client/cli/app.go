package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/braindock/internal/client/client"
	"github.com/dmitrijs2005/braindock/internal/client/config"
	"github.com/dmitrijs2005/braindock/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/braindock/internal/client/services"
	"github.com/dmitrijs2005/braindock/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	// ModeLocal means no remote authority is configured.
	ModeLocal Mode = "local"
)

// App is the state shared by every command of one process.
type App struct {
	config *config.Config
	engine *services.Engine
	logger logging.Logger
	out    io.Writer
	errOut io.Writer

	mode    atomic.Value
	closers []func() error
}

var (
	openDatabase = client.InitDatabase
	newRemote    = buildRemote
)

// NewApp opens the local store and the configured remote authority.
func NewApp(ctx context.Context, c *config.Config, out, errOut io.Writer) (*App, error) {
	logger := logging.NewTextLogger(errOut, c.LogLevel)

	db, err := openDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}
	a := &App{config: c, logger: logger, out: out, errOut: errOut}
	a.closers = append(a.closers, db.Close)

	remote, closeRemote, err := newRemote(ctx, c, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if closeRemote != nil {
		a.closers = append(a.closers, closeRemote)
	}

	a.engine = services.NewEngine(db, repomanager.NewSQLiteRepositoryManager(), remote, logger, services.Options{
		MaxListLimit:     c.MaxListLimit,
		MaxErrorLength:   c.MaxErrorLength,
		DrainTimeout:     c.DrainTimeout,
		DrainConcurrency: c.DrainConcurrency,
		SyncInterval:     c.SyncInterval,
	})
	if remote == nil {
		a.mode.Store(ModeLocal)
	} else {
		a.mode.Store(ModeOffline)
	}
	return a, nil
}

func buildRemote(ctx context.Context, c *config.Config, logger logging.Logger) (client.RemoteAuthority, func() error, error) {
	switch c.Remote {
	case config.RemoteNone, "":
		return nil, nil, nil
	case config.RemoteGRPC:
		r, err := client.NewGRPCClient(c.ServerEndpointAddr, c.AccessToken)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case config.RemotePostgres:
		r, err := client.NewPostgresAuthority(c.PostgresDSN, c.PostgresConnectTimeout, c.MaxListLimit, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case config.RemoteS3:
		r, err := client.NewS3Authority(ctx, client.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Prefix:       c.S3Prefix,
			MaxListLimit: c.MaxListLimit,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown remote %q", c.Remote)
}

// Close releases the remote and the local store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) Mode() Mode {
	m, _ := a.mode.Load().(Mode)
	return m
}

func (a *App) setMode(mode Mode) {
	if old := a.mode.Swap(mode); old != mode {
		fmt.Fprintf(a.errOut, "Switched to %s mode\n", mode)
	}
}

// StartOnlineStatusWatcher probes the remote every interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if !a.engine.HasRemote() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if a.engine.Online(ctx) {
			a.setMode(ModeOnline)
		} else {
			a.setMode(ModeOffline)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

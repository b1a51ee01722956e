package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/logging"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/server/migrate"
	"github.com/dmitrijs2005/braindock/internal/server/repositories/entries"
	"github.com/dmitrijs2005/braindock/internal/server/services"
)

// Seams for tests.
var (
	migrateUp = migrate.Up
	openPool  = func(ctx context.Context, dsn string) (entries.PgxPool, error) {
		return entries.NewPool(ctx, dsn)
	}
)

// PostgresAuthority talks to the remote PostgreSQL database directly, running
// the same AuthorityService as braindock-server inside the client process.
// The connection is made on first use, so the client works offline until
// the database is reachable.
type PostgresAuthority struct {
	dsn            string
	connectTimeout time.Duration
	maxListLimit   int
	logger         logging.Logger

	mu   sync.Mutex
	svc  *services.AuthorityService
	pool entries.PgxPool
}

// NewPostgresAuthority prepares a lazily connected authority. Nothing is
// dialled here.
func NewPostgresAuthority(dsn string, connectTimeout time.Duration, maxListLimit int, logger logging.Logger) (*PostgresAuthority, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	return &PostgresAuthority{
		dsn:            dsn,
		connectTimeout: connectTimeout,
		maxListLimit:   maxListLimit,
		logger:         logger,
	}, nil
}

func newPostgresAuthority(pool entries.PgxPool, maxListLimit int, logger logging.Logger) *PostgresAuthority {
	p := &PostgresAuthority{maxListLimit: maxListLimit, logger: logger}
	p.attach(pool)
	return p
}

func (p *PostgresAuthority) attach(pool entries.PgxPool) {
	p.pool = pool
	p.svc = services.NewAuthorityService(entries.NewPostgresRepository(pool), p.maxListLimit, p.logger)
}

// service connects on the first call: it migrates the schema and opens the
// pool within connectTimeout. A failed attempt is retried on the next call.
func (p *PostgresAuthority) service(ctx context.Context) (*services.AuthorityService, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.svc != nil {
		return p.svc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	if err := migrateUp(ctx, p.dsn); err != nil {
		return nil, fmt.Errorf("%w: migrate remote schema: %w", common.ErrRemoteUnavailable, err)
	}
	pool, err := openPool(ctx, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect remote database: %w", common.ErrRemoteUnavailable, err)
	}
	p.attach(pool)
	p.logger.Info(ctx, "connected to remote database")
	return p.svc, nil
}

func (p *PostgresAuthority) Push(ctx context.Context, e models.Entry) (string, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return "", err
	}
	remoteID, _, err := svc.Push(ctx, e)
	return remoteID, err
}

func (p *PostgresAuthority) Read(ctx context.Context, id string) (*models.Entry, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Read(ctx, id)
}

func (p *PostgresAuthority) List(ctx context.Context, f models.Filter) ([]models.Entry, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}
	return svc.List(ctx, f)
}

func (p *PostgresAuthority) Ping(ctx context.Context) error {
	svc, err := p.service(ctx)
	if err != nil {
		return err
	}
	return svc.Ping(ctx)
}

// Close releases the pool if one was opened.
func (p *PostgresAuthority) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

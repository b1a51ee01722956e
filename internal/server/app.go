// Package server wires the braindock remote authority: configuration,
// schema migrations, the PostgreSQL store and the gRPC endpoint.
package server

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/braindock/internal/logging"
	"github.com/dmitrijs2005/braindock/internal/server/auth"
	"github.com/dmitrijs2005/braindock/internal/server/config"
	gs "github.com/dmitrijs2005/braindock/internal/server/grpc"
	"github.com/dmitrijs2005/braindock/internal/server/migrate"
	"github.com/dmitrijs2005/braindock/internal/server/repositories/entries"
	"github.com/dmitrijs2005/braindock/internal/server/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type App struct {
	config *config.Config
	zl     *zap.Logger
	logger logging.Logger
	out    io.Writer
}

// Seams for tests.
var (
	migrateUp = migrate.Up
	openPool  = func(ctx context.Context, dsn string) (entries.PgxPool, error) {
		return entries.NewPool(ctx, dsn)
	}
)

// NewApp builds the application; out receives issued tokens.
func NewApp(c *config.Config, out io.Writer) (*App, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	return newApp(c, zl, out), nil
}

func newApp(c *config.Config, zl *zap.Logger, out io.Writer) *App {
	return &App{config: c, zl: zl, logger: logging.NewZapLogger(zl), out: out}
}

// IssueToken prints a signed access token for subject.
func (app *App) IssueToken(subject string) error {
	if app.config.SecretKey == "" {
		return fmt.Errorf("cannot issue token: no secret key configured")
	}
	tok, err := auth.GenerateToken(subject, []byte(app.config.SecretKey), app.config.TokenValidityDuration)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.out, tok)
	return err
}

// Run serves until SIGINT/SIGTERM or ctx is done. With IssueTokenFor set it
// prints a token and returns instead.
func (app *App) Run(ctx context.Context) error {
	defer func() { _ = app.zl.Sync() }()

	if app.config.IssueTokenFor != "" {
		return app.IssueToken(app.config.IssueTokenFor)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	connectCtx, cancel := context.WithTimeout(ctx, app.config.ConnectTimeout)
	defer cancel()

	if err := migrateUp(connectCtx, app.config.DatabaseDSN); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	pool, err := openPool(connectCtx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer pool.Close()

	repo := entries.NewPostgresRepository(pool)
	svc := services.NewAuthorityService(repo, app.config.MaxListLimit, app.logger)

	if app.config.SecretKey == "" {
		app.logger.Warn(ctx, "no secret key configured, bearer token checks are disabled")
	}

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.zl, svc, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		return err
	}

	app.logger.Info(context.Background(), "shutdown complete")
	return nil
}

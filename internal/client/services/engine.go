// Package services contains the reconciliation engine: the only component
// that writes entries, sync queue items and history records of the local
// store, and the only one that talks to the remote authority.
package services

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/braindock/internal/client/client"
	"github.com/dmitrijs2005/braindock/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/logging"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/google/uuid"
)

// Options tunes the engine. Zero values fall back to the defaults below.
type Options struct {
	MaxListLimit     int
	MaxErrorLength   int
	DrainTimeout     time.Duration
	DrainConcurrency int
	SyncInterval     time.Duration
}

const (
	DefaultMaxListLimit     = 1000
	DefaultDrainTimeout     = 10 * time.Second
	DefaultDrainConcurrency = 4
	DefaultSyncInterval     = time.Minute
)

func (o Options) withDefaults() Options {
	if o.MaxListLimit <= 0 {
		o.MaxListLimit = DefaultMaxListLimit
	}
	if o.MaxErrorLength <= 0 {
		o.MaxErrorLength = common.DefaultMaxErrorLength
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	if o.DrainConcurrency <= 0 {
		o.DrainConcurrency = DefaultDrainConcurrency
	}
	if o.SyncInterval <= 0 {
		o.SyncInterval = DefaultSyncInterval
	}
	return o
}

// Engine is constructed once per process and shared by every caller. It owns
// the local store; nothing else may write sync_status or history.
type Engine struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	remote client.RemoteAuthority
	logger logging.Logger
	opts   Options

	now   func() time.Time
	newID func() (string, error)
	locks *keyedMutex
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock. The engine truncates every reading to
// microseconds in UTC.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the UUIDv7 generator for entry, queue and history ids.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine wires the engine. remote may be nil for a purely offline client:
// captures still work and drains report common.ErrRemoteUnavailable.
func NewEngine(db *sql.DB, rm repomanager.RepositoryManager, remote client.RemoteAuthority, logger logging.Logger, opts Options, options ...Option) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	e := &Engine{
		db:     db,
		rm:     rm,
		remote: remote,
		logger: logger.With("module", "engine"),
		opts:   opts.withDefaults(),
		now:    time.Now,
		newID:  newV7,
		locks:  newKeyedMutex(),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

func newV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// bump returns a timestamp strictly after prev.
func (e *Engine) bump(prev time.Time) time.Time {
	t := e.clock()
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}

func (e *Engine) truncateError(s string) string {
	if utf8.RuneCountInString(s) <= e.opts.MaxErrorLength {
		return s
	}
	return string([]rune(s)[:e.opts.MaxErrorLength])
}

// HasRemote reports whether a remote authority is configured.
func (e *Engine) HasRemote() bool { return e.remote != nil }

// Online reports whether the remote authority answers. Authorities without
// a Ping method are assumed reachable.
func (e *Engine) Online(ctx context.Context) bool {
	if e.remote == nil {
		return false
	}
	p, ok := e.remote.(client.Pinger)
	if !ok {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(ctx) == nil
}

func (e *Engine) history(entryID string, source models.HistorySource, before *models.Entry, after models.Entry, at time.Time) (*models.HistoryRecord, error) {
	id, err := e.newID()
	if err != nil {
		return nil, err
	}
	beforeJSON := "null"
	if before != nil {
		if beforeJSON, err = before.Snapshot(); err != nil {
			return nil, err
		}
	}
	afterJSON, err := after.Snapshot()
	if err != nil {
		return nil, err
	}
	return &models.HistoryRecord{
		ID:         id,
		EntryID:    entryID,
		Source:     source,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
		CreatedAt:  at,
	}, nil
}

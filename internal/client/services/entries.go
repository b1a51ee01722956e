package services

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/dbx"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/search"
)

// CreateEntry validates in, stores the entry with sync_status pending and
// enqueues it for delivery. The entry, its search document, the queue item
// and the creation history record are written in one transaction.
func (e *Engine) CreateEntry(ctx context.Context, in models.EntryInput) (*models.Entry, error) {
	entry, err := e.buildEntry(in)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(entry.ID)
	defer unlock()

	err = dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := e.rm.Entries(tx).Insert(ctx, entry); err != nil {
			return err
		}
		if err := e.rm.Entries(tx).SaveSearchDocument(ctx, search.BuildDocument(*entry)); err != nil {
			return err
		}
		item, err := e.newQueueItem(entry.ID, entry.CreatedAt)
		if err != nil {
			return err
		}
		if err := e.rm.SyncQueue(tx).Insert(ctx, item); err != nil {
			return err
		}
		rec, err := e.history(entry.ID, models.HistorySourceLocal, nil, *entry, entry.CreatedAt)
		if err != nil {
			return err
		}
		return e.rm.History(tx).Append(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info(ctx, "entry created", "id", entry.ID, "type", string(entry.Type))
	return entry, nil
}

func (e *Engine) buildEntry(in models.EntryInput) (*models.Entry, error) {
	now := e.clock()

	id := in.ID
	if id == "" {
		var err error
		if id, err = e.newID(); err != nil {
			return nil, err
		}
	}

	occurred := now
	if in.OccurredAt != nil {
		occurred = in.OccurredAt.UTC().Truncate(time.Microsecond)
	}
	sensitivity := in.Sensitivity
	if sensitivity == "" {
		sensitivity = models.SensitivityInternal
	}

	entry := &models.Entry{
		ID:          id,
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Body:        in.Body,
		Tags:        models.NormalizeTags(in.Tags),
		OccurredAt:  occurred,
		Sensitivity: sensitivity,
		Payload:     in.Payload,
		CreatedAt:   now,
		UpdatedAt:   now,
		SyncStatus:  models.SyncStatusPending,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// CaptureInput is free text plus optional hints, as typed on the command line.
type CaptureInput struct {
	// Type is "" or "auto" for detection.
	Type        string
	Text        string
	OccurredAt  *time.Time
	Sensitivity models.Sensitivity
	Tags        []string
	DryRun      bool
}

// CaptureResult describes a capture. Entry is not stored when DryRun is set.
type CaptureResult struct {
	Entry        *models.Entry    `json:"entry"`
	DetectedType models.EntryType `json:"detected_type"`
	PIIScore     float64          `json:"pii_score"`
	DryRun       bool             `json:"dry_run"`
}

// Capture turns free text into an entry: the type is detected unless given,
// the sensitivity is suggested from the PII score unless given, and the
// title is the first line of the text.
func (e *Engine) Capture(ctx context.Context, in CaptureInput) (*CaptureResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, common.Invalid("text", "must not be empty")
	}

	detected := models.DetectType(text)
	t := detected
	if in.Type != "" && !strings.EqualFold(in.Type, "auto") {
		parsed, err := models.ParseEntryType(in.Type)
		if err != nil {
			return nil, err
		}
		t = parsed
	}

	sensitivity := in.Sensitivity
	if sensitivity == "" {
		sensitivity = models.SuggestSensitivity(text)
	}

	payload, err := models.DefaultPayload(t, text)
	if err != nil {
		return nil, err
	}

	input := models.EntryInput{
		Type:        t,
		Title:       models.CaptureTitle(text),
		Body:        text,
		Tags:        in.Tags,
		OccurredAt:  in.OccurredAt,
		Sensitivity: sensitivity,
		Payload:     payload,
	}
	res := &CaptureResult{DetectedType: detected, PIIScore: models.PIIScore(text), DryRun: in.DryRun}

	if in.DryRun {
		entry, err := e.buildEntry(input)
		if err != nil {
			return nil, err
		}
		res.Entry = entry
		return res, nil
	}

	entry, err := e.CreateEntry(ctx, input)
	if err != nil {
		return nil, err
	}
	res.Entry = entry
	return res, nil
}

// CaptureText stores text as an entry of type t with the default payload
// for that type.
func (e *Engine) CaptureText(ctx context.Context, t models.EntryType, text string, occurredAt *time.Time) (*models.Entry, error) {
	res, err := e.Capture(ctx, CaptureInput{Type: string(t), Text: text, OccurredAt: occurredAt})
	if err != nil {
		return nil, err
	}
	return res.Entry, nil
}

func (e *Engine) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	if id == "" {
		return nil, common.Invalid("id", "must not be empty")
	}
	return e.rm.Entries(e.db).GetByID(ctx, id)
}

// ListEntries returns entries matching f, newest occurred_at first. The
// limit is clamped to MaxListLimit.
func (e *Engine) ListEntries(ctx context.Context, f models.Filter) ([]models.Entry, error) {
	return e.rm.Entries(e.db).List(ctx, f, f.EffectiveLimit(e.opts.MaxListLimit))
}

// SearchEntries ranks the local entries matching f against query, using the
// stored search documents.
func (e *Engine) SearchEntries(ctx context.Context, query string, f models.Filter) ([]search.Result, error) {
	repo := e.rm.Entries(e.db)
	candidates, err := repo.List(ctx, f, 0)
	if err != nil {
		return nil, err
	}
	docs, err := repo.SearchDocuments(ctx)
	if err != nil {
		return nil, err
	}
	results := search.Rank(candidates, docs, query, e.clock())
	if limit := f.EffectiveLimit(e.opts.MaxListLimit); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListRemote lists entries straight from the remote authority.
func (e *Engine) ListRemote(ctx context.Context, f models.Filter) ([]models.Entry, error) {
	if e.remote == nil {
		return nil, common.ErrRemoteUnavailable
	}
	f.Limit = f.EffectiveLimit(e.opts.MaxListLimit)
	return e.remote.List(ctx, f)
}

// SearchRemote ranks remote entries matching f against query.
func (e *Engine) SearchRemote(ctx context.Context, query string, f models.Filter) ([]search.Result, error) {
	if e.remote == nil {
		return nil, common.ErrRemoteUnavailable
	}
	limit := f.EffectiveLimit(e.opts.MaxListLimit)
	f.Limit = e.opts.MaxListLimit
	entries, err := e.remote.List(ctx, f)
	if err != nil {
		return nil, err
	}
	results := search.Search(entries, query, e.clock())
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetRemote reads an entry straight from the remote authority.
func (e *Engine) GetRemote(ctx context.Context, id string) (*models.Entry, error) {
	if e.remote == nil {
		return nil, common.ErrRemoteUnavailable
	}
	if id == "" {
		return nil, common.Invalid("id", "must not be empty")
	}
	return e.remote.Read(ctx, id)
}

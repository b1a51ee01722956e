package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
)

// Run recovers interrupted deliveries and then drains the queue every
// SyncInterval until ctx is done. Failed items stay failed until retried.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.Recover(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(e.opts.SyncInterval)
	defer ticker.Stop()

	for {
		e.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	results, err := e.DrainPending(ctx)
	if errors.Is(err, common.ErrRemoteUnavailable) {
		e.logger.Debug(ctx, "no remote configured, skipping drain")
		return
	}
	if err != nil {
		e.logger.Error(ctx, "drain failed", "error", err.Error())
		return
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if len(results) > 0 {
		e.logger.Info(ctx, "drain finished", "delivered", len(results)-failed, "failed", failed)
	}
}

package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
)

// SyncStatus is shared by entries and sync queue items.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusFailed  SyncStatus = "failed"
)

// CanTransition reports whether from -> to is an edge of the sync state
// machine: pending -> syncing -> {synced, failed}, failed -> pending.
func CanTransition(from, to SyncStatus) bool {
	switch from {
	case SyncStatusPending:
		return to == SyncStatusSyncing
	case SyncStatusSyncing:
		return to == SyncStatusSynced || to == SyncStatusFailed
	case SyncStatusFailed:
		return to == SyncStatusPending
	}
	return false
}

// CheckTransition is CanTransition returning an error wrapping
// common.ErrInvalidTransition.
func CheckTransition(from, to SyncStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, from, to)
	}
	return nil
}

func ParseSyncStatus(s string) (SyncStatus, error) {
	switch v := SyncStatus(s); v {
	case SyncStatusPending, SyncStatusSyncing, SyncStatusSynced, SyncStatusFailed:
		return v, nil
	}
	return "", common.Invalid("status", "unknown sync status %q", s)
}

// SyncQueueItem is one outstanding delivery intent for an entry.
type SyncQueueItem struct {
	ID        string     `json:"id"`
	EntryID   string     `json:"entry_id"`
	Status    SyncStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	// LastError is only meaningful while Status is failed.
	LastError string `json:"last_error,omitempty"`
	Attempts  int    `json:"attempts"`
}

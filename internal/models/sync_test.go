package models

import (
	"testing"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	all := []SyncStatus{SyncStatusPending, SyncStatusSyncing, SyncStatusSynced, SyncStatusFailed}
	allowed := map[[2]SyncStatus]bool{
		{SyncStatusPending, SyncStatusSyncing}: true,
		{SyncStatusSyncing, SyncStatusSynced}:  true,
		{SyncStatusSyncing, SyncStatusFailed}:  true,
		{SyncStatusFailed, SyncStatusPending}:  true,
	}
	for _, from := range all {
		for _, to := range all {
			require.Equal(t, allowed[[2]SyncStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	require.NoError(t, CheckTransition(SyncStatusFailed, SyncStatusPending))
	err := CheckTransition(SyncStatusSynced, SyncStatusPending)
	require.ErrorIs(t, err, common.ErrInvalidTransition)
	require.Contains(t, err.Error(), "synced -> pending")
}

func TestParseSyncStatus(t *testing.T) {
	s, err := ParseSyncStatus("failed")
	require.NoError(t, err)
	require.Equal(t, SyncStatusFailed, s)
	_, err = ParseSyncStatus("done")
	require.ErrorIs(t, err, common.ErrValidation)
}

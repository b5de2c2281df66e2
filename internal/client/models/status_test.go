package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSyncStatus_Dirty(t *testing.T) {
	require.True(t, StatusCreated.Dirty())
	require.True(t, StatusUpdated.Dirty())
	require.False(t, StatusSynced.Dirty())
	require.False(t, StatusDeleted.Dirty())
}

func TestActivity_EffectiveStatus_UpdatedWithoutRemoteIDIsCreated(t *testing.T) {
	a := &Activity{StartedAt: time.Now(), SyncStatus: StatusUpdated}
	require.Equal(t, StatusCreated, a.EffectiveStatus())

	rid := int64(7)
	a.RemoteID = &rid
	require.Equal(t, StatusUpdated, a.EffectiveStatus())
}

func TestActivityEntry_EffectiveStatus(t *testing.T) {
	e := &ActivityEntry{SyncStatus: StatusUpdated}
	require.Equal(t, StatusCreated, e.EffectiveStatus())

	e.SyncStatus = StatusCreated
	require.Equal(t, StatusCreated, e.EffectiveStatus())

	rid := int64(42)
	e.RemoteID = &rid
	e.SyncStatus = StatusUpdated
	require.Equal(t, StatusUpdated, e.EffectiveStatus())
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTemp(t *testing.T) *Repositories {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	repos, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func TestOpen_MigratesAndPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	repos, err := Open(ctx, path)
	require.NoError(t, err)

	id, err := repos.Plans.Insert(ctx, &models.Plan{Name: "Upper/Lower", SyncStatus: models.StatusCreated})
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	// reopening reapplies migrations idempotently and keeps the data
	repos, err = Open(ctx, path)
	require.NoError(t, err)
	defer repos.Close()

	p, err := repos.Plans.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Upper/Lower", p.Name)
}

func TestReset_WipesAllCollections(t *testing.T) {
	ctx := context.Background()
	repos := openTemp(t)

	require.NoError(t, repos.ReferenceItems.Upsert(ctx, &models.ReferenceItem{ID: 1, Name: "Squat"}))
	planID, err := repos.Plans.Insert(ctx, &models.Plan{Name: "p", SyncStatus: models.StatusCreated})
	require.NoError(t, err)
	actID, err := repos.Activities.Insert(ctx, &models.Activity{PlanID: &planID, StartedAt: time.Now().UTC(), SyncStatus: models.StatusCreated})
	require.NoError(t, err)
	_, err = repos.Entries.Insert(ctx, &models.ActivityEntry{ActivityID: actID, ReferenceItemID: 1, CompletedAt: time.Now().UTC(), SyncStatus: models.StatusCreated})
	require.NoError(t, err)
	_, err = repos.Outbox.Add(ctx, &models.OutboxEvent{EventType: models.EventPlanArchive, ClientTimestamp: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, repos.Metadata.Set(ctx, "token", []byte("x")))

	require.NoError(t, repos.Reset(ctx))

	items, err := repos.ReferenceItems.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	plans, err := repos.Plans.GetAll(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, plans)

	acts, err := repos.Activities.GetRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, acts)

	events, err := repos.Outbox.GetUnprocessed(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	v, err := repos.Metadata.Get(ctx, "token")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEnsureDeviceID_StableAcrossCalls(t *testing.T) {
	ctx := context.Background()
	repos := openTemp(t)

	id1, err := EnsureDeviceID(ctx, repos.Metadata)
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := EnsureDeviceID(ctx, repos.Metadata)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

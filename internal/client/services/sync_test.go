package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/client/storage"
)

func newEngine(repos *storage.Repositories, client api.Client) *SyncEngine {
	return NewSyncEngine(repos, client, testLogger())
}

func TestRunPassOffline(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	_, err := repos.Plans.Insert(ctx, &models.Plan{Name: "draft", SyncStatus: models.StatusCreated})
	require.NoError(t, err)

	client := &fakeClient{
		pingFn: func(ctx context.Context) error { return api.ErrOffline },
		createPlanFn: func(ctx context.Context, p *models.Plan) (*models.Plan, error) {
			t.Fatal("must not push while offline")
			return nil, nil
		},
	}

	report := newEngine(repos, client).RunPass(ctx)
	assert.True(t, report.Ran)
	assert.True(t, report.Offline)
	assert.Empty(t, report.Items)
}

func TestRunPassCoalesced(t *testing.T) {
	repos := testRepos(t)
	engine := newEngine(repos, &fakeClient{})

	engine.mu.Lock()
	report := engine.RunPass(context.Background())
	engine.mu.Unlock()

	assert.False(t, report.Ran)
}

func TestRunPassDrainsPlanEvents(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)
	engine := newEngine(repos, nil)

	require.NoError(t, engine.QueuePlanEvent(ctx, models.EventPlanArchive, 5))
	require.NoError(t, engine.QueuePlanEvent(ctx, models.EventPlanDelete, 6))

	var archived, deleted []int64
	engine.client = &fakeClient{
		archivePlanFn: func(ctx context.Context, id int64) error {
			archived = append(archived, id)
			return nil
		},
		deletePlanFn: func(ctx context.Context, id int64) error {
			deleted = append(deleted, id)
			return nil
		},
	}

	report := engine.RunPass(ctx)
	assert.Equal(t, 0, report.Failed())
	assert.Equal(t, []int64{5}, archived)
	assert.Equal(t, []int64{6}, deleted)

	left, err := repos.Outbox.GetUnprocessed(ctx)
	require.NoError(t, err)
	assert.Empty(t, left, "delivered events must be removed")
}

func TestRunPassPlanEventGoneIsApplied(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)
	engine := newEngine(repos, &fakeClient{
		archivePlanFn: func(ctx context.Context, id int64) error {
			return &api.StatusError{Code: 404, Body: "no such plan"}
		},
	})

	require.NoError(t, engine.QueuePlanEvent(ctx, models.EventPlanArchive, 5))

	report := engine.RunPass(ctx)
	assert.Equal(t, 0, report.Failed(), "a 404 on a lifecycle event counts as applied")

	left, err := repos.Outbox.GetUnprocessed(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRunPassOutboxFailureKeepsEvent(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)
	engine := newEngine(repos, &fakeClient{
		archivePlanFn: func(ctx context.Context, id int64) error {
			return &api.StatusError{Code: 500, Body: "boom"}
		},
	})

	require.NoError(t, engine.QueuePlanEvent(ctx, models.EventPlanArchive, 5))

	report := engine.RunPass(ctx)
	assert.Equal(t, 1, report.Failed())

	left, err := repos.Outbox.GetUnprocessed(ctx)
	require.NoError(t, err)
	assert.Len(t, left, 1, "an undelivered event must stay queued")
}

func TestRunPassCreatedPlanReplaced(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	localID, err := repos.Plans.Insert(ctx, &models.Plan{Name: "new split", SyncStatus: models.StatusCreated})
	require.NoError(t, err)
	actID, err := repos.Activities.Insert(ctx, &models.Activity{
		PlanID:     &localID,
		StartedAt:  time.Now().UTC(),
		SyncStatus: models.StatusSynced,
	})
	require.NoError(t, err)

	engine := newEngine(repos, &fakeClient{
		createPlanFn: func(ctx context.Context, p *models.Plan) (*models.Plan, error) {
			out := *p
			out.ID = 500
			return &out, nil
		},
	})

	report := engine.RunPass(ctx)
	require.Equal(t, 0, report.Failed())

	// The provisional row is gone, the server copy took its place.
	got, err := repos.Plans.GetAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(500), got[0].ID)
	assert.Equal(t, "new split", got[0].Name)
	assert.Equal(t, models.StatusSynced, got[0].SyncStatus)

	// Dependent activities follow the plan to its server id.
	a, err := repos.Activities.GetByLocalID(ctx, actID)
	require.NoError(t, err)
	require.NotNil(t, a.PlanID)
	assert.Equal(t, int64(500), *a.PlanID)
}

func TestRunPassUpdatedPlan(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	require.NoError(t, repos.Plans.Put(ctx, &models.Plan{ID: 5, Name: "renamed", SyncStatus: models.StatusUpdated}))

	var pushed *models.Plan
	engine := newEngine(repos, &fakeClient{
		updatePlanFn: func(ctx context.Context, p *models.Plan) (*models.Plan, error) {
			pushed = p
			out := *p
			return &out, nil
		},
	})

	report := engine.RunPass(ctx)
	require.Equal(t, 0, report.Failed())
	require.NotNil(t, pushed)
	assert.Equal(t, int64(5), pushed.ID)

	p, err := repos.Plans.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, p.SyncStatus)
}

func TestRunPassDeletedPlanArchivesRemotely(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	now := time.Now().UTC()
	require.NoError(t, repos.Plans.Put(ctx, &models.Plan{ID: 5, Name: "old", ArchivedAt: &now, SyncStatus: models.StatusDeleted}))

	var archived []int64
	engine := newEngine(repos, &fakeClient{
		archivePlanFn: func(ctx context.Context, id int64) error {
			archived = append(archived, id)
			return nil
		},
	})

	report := engine.RunPass(ctx)
	require.Equal(t, 0, report.Failed())
	assert.Equal(t, []int64{5}, archived)

	p, err := repos.Plans.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, p.SyncStatus)
}

func TestRunPassCreatedActivityWithEntries(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	actID, err := repos.Activities.Insert(ctx, &models.Activity{
		StartedAt:  time.Now().UTC(),
		Note:       "offline session",
		SyncStatus: models.StatusCreated,
	})
	require.NoError(t, err)

	reps := 10
	entryID, err := repos.Entries.Insert(ctx, &models.ActivityEntry{
		ActivityID:      actID,
		ReferenceItemID: 1,
		Ordinal:         0,
		Reps:            &reps,
		CompletedAt:     time.Now().UTC(),
		SyncStatus:      models.StatusCreated,
	})
	require.NoError(t, err)

	engine := newEngine(repos, &fakeClient{
		createActivityFn: func(ctx context.Context, req *api.ActivityCreate) (int64, error) {
			assert.Equal(t, "offline session", req.Note)
			return 77, nil
		},
		createEntryFn: func(ctx context.Context, req *api.EntryCreate) (int64, error) {
			// The owning reference is the server id, resolved at transmission.
			assert.Equal(t, int64(77), req.ActivityID)
			return 700, nil
		},
	})

	report := engine.RunPass(ctx)
	require.Equal(t, 0, report.Failed())

	a, err := repos.Activities.GetByLocalID(ctx, actID)
	require.NoError(t, err)
	require.NotNil(t, a.RemoteID)
	assert.Equal(t, int64(77), *a.RemoteID)
	assert.Equal(t, models.StatusSynced, a.SyncStatus)

	e, err := repos.Entries.GetByLocalID(ctx, entryID)
	require.NoError(t, err)
	require.NotNil(t, e.RemoteID)
	assert.Equal(t, int64(700), *e.RemoteID)
	assert.Equal(t, models.StatusSynced, e.SyncStatus)
}

func TestRunPassUpdatedActivity(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	remoteID := int64(77)
	completed := time.Now().UTC()
	actID, err := repos.Activities.Insert(ctx, &models.Activity{
		RemoteID:    &remoteID,
		StartedAt:   completed.Add(-time.Hour),
		CompletedAt: &completed,
		Note:        "edited note",
		SyncStatus:  models.StatusUpdated,
	})
	require.NoError(t, err)

	engine := newEngine(repos, &fakeClient{
		updateActivityFn: func(ctx context.Context, id int64, req *api.ActivityUpdate) error {
			assert.Equal(t, remoteID, id)
			require.NotNil(t, req.Note)
			assert.Equal(t, "edited note", *req.Note)
			require.NotNil(t, req.CompletedAt)
			return nil
		},
	})

	report := engine.RunPass(ctx)
	require.Equal(t, 0, report.Failed())

	a, err := repos.Activities.GetByLocalID(ctx, actID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, a.SyncStatus)
}

func TestRunPassHoldsActivityBehindUnpushedPlan(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	planID, err := repos.Plans.Insert(ctx, &models.Plan{Name: "draft", SyncStatus: models.StatusCreated})
	require.NoError(t, err)
	actID, err := repos.Activities.Insert(ctx, &models.Activity{
		PlanID:     &planID,
		StartedAt:  time.Now().UTC(),
		SyncStatus: models.StatusCreated,
	})
	require.NoError(t, err)
	entryID, err := repos.Entries.Insert(ctx, &models.ActivityEntry{
		ActivityID:      actID,
		ReferenceItemID: 1,
		CompletedAt:     time.Now().UTC(),
		SyncStatus:      models.StatusCreated,
	})
	require.NoError(t, err)

	// Plan push fails, so the plan keeps its provisional id and the
	// activity (and its entry) must wait for a later pass.
	engine := newEngine(repos, &fakeClient{
		createPlanFn: func(ctx context.Context, p *models.Plan) (*models.Plan, error) {
			return nil, &api.StatusError{Code: 500, Body: "boom"}
		},
		createActivityFn: func(ctx context.Context, req *api.ActivityCreate) (int64, error) {
			t.Fatal("activity must not be pushed before its plan")
			return 0, nil
		},
	})

	report := engine.RunPass(ctx)
	assert.Equal(t, 1, report.Failed())

	a, err := repos.Activities.GetByLocalID(ctx, actID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, a.SyncStatus)
	assert.Nil(t, a.RemoteID)

	e, err := repos.Entries.GetByLocalID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, e.SyncStatus)
}

func TestRunPassFailureIsolation(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	require.NoError(t, repos.Plans.Put(ctx, &models.Plan{ID: 5, Name: "bad", SyncStatus: models.StatusUpdated}))
	require.NoError(t, repos.Plans.Put(ctx, &models.Plan{ID: 6, Name: "good", SyncStatus: models.StatusUpdated}))

	engine := newEngine(repos, &fakeClient{
		updatePlanFn: func(ctx context.Context, p *models.Plan) (*models.Plan, error) {
			if p.ID == 5 {
				return nil, &api.StatusError{Code: 422, Body: "invalid"}
			}
			out := *p
			return &out, nil
		},
	})

	report := engine.RunPass(ctx)
	assert.Equal(t, 1, report.Failed())
	assert.Len(t, report.Items, 2, "one bad row must not block the rest")

	good, err := repos.Plans.GetByID(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, good.SyncStatus)

	bad, err := repos.Plans.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdated, bad.SyncStatus, "the failed row stays dirty for the next pass")
}

func TestRunPassSecondPassIsEmpty(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	_, err := repos.Activities.Insert(ctx, &models.Activity{
		StartedAt:  time.Now().UTC(),
		SyncStatus: models.StatusCreated,
	})
	require.NoError(t, err)

	engine := newEngine(repos, &fakeClient{})

	first := engine.RunPass(ctx)
	require.Equal(t, 0, first.Failed())
	assert.NotEmpty(t, first.Items)

	second := engine.RunPass(ctx)
	assert.True(t, second.Ran)
	assert.Empty(t, second.Items, "a clean store has nothing to push")
}

func TestRunPassAbortsWhenConnectionLost(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)

	require.NoError(t, repos.Plans.Put(ctx, &models.Plan{ID: 5, Name: "a", SyncStatus: models.StatusUpdated}))
	_, err := repos.Activities.Insert(ctx, &models.Activity{
		StartedAt:  time.Now().UTC(),
		SyncStatus: models.StatusCreated,
	})
	require.NoError(t, err)

	engine := newEngine(repos, &fakeClient{
		updatePlanFn: func(ctx context.Context, p *models.Plan) (*models.Plan, error) {
			return nil, api.ErrOffline
		},
		createActivityFn: func(ctx context.Context, req *api.ActivityCreate) (int64, error) {
			t.Fatal("pass must abort once the connection drops")
			return 0, nil
		},
	})

	report := engine.RunPass(ctx)
	assert.True(t, report.Offline)
}

func TestQueuePlanEvent(t *testing.T) {
	ctx := context.Background()
	repos := testRepos(t)
	engine := newEngine(repos, &fakeClient{})

	require.NoError(t, engine.QueuePlanEvent(ctx, models.EventPlanRestore, 9))

	events, err := repos.Outbox.GetUnprocessed(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventPlanRestore, events[0].EventType)
	assert.JSONEq(t, `{"plan_id": 9}`, string(events[0].Payload))
}

package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/client/storage"
	"github.com/dmitrijs2005/traintrack/internal/logging"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRepos(t *testing.T) *storage.Repositories {
	t.Helper()
	repos, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

// fakeClient implements api.Client with overridable behavior per method.
// Unset methods report success with empty data.
type fakeClient struct {
	api.Client

	pingFn           func(ctx context.Context) error
	loginFn          func(ctx context.Context, creds api.Credentials) (string, error)
	getProfileFn     func(ctx context.Context) (*models.Profile, error)
	listRefItemsFn   func(ctx context.Context) ([]models.ReferenceItem, error)
	listPlansFn      func(ctx context.Context, includeArchived bool) ([]models.Plan, error)
	createPlanFn     func(ctx context.Context, p *models.Plan) (*models.Plan, error)
	updatePlanFn     func(ctx context.Context, p *models.Plan) (*models.Plan, error)
	archivePlanFn    func(ctx context.Context, id int64) error
	restorePlanFn    func(ctx context.Context, id int64) error
	deletePlanFn     func(ctx context.Context, id int64) error
	listActivitiesFn func(ctx context.Context, limit int) ([]api.RemoteActivity, error)
	createActivityFn func(ctx context.Context, req *api.ActivityCreate) (int64, error)
	updateActivityFn func(ctx context.Context, remoteID int64, req *api.ActivityUpdate) error
	createEntryFn    func(ctx context.Context, req *api.EntryCreate) (int64, error)
	updateEntryFn    func(ctx context.Context, remoteID int64, req *api.EntryUpdate) error
	submitOutboxFn   func(ctx context.Context, events []models.OutboxEvent) error
}

func (f *fakeClient) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeClient) Login(ctx context.Context, creds api.Credentials) (string, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, creds)
	}
	return "token", nil
}

func (f *fakeClient) GetProfile(ctx context.Context) (*models.Profile, error) {
	if f.getProfileFn != nil {
		return f.getProfileFn(ctx)
	}
	return &models.Profile{ID: 1, Email: "user@example.com"}, nil
}

func (f *fakeClient) ListReferenceItems(ctx context.Context) ([]models.ReferenceItem, error) {
	if f.listRefItemsFn != nil {
		return f.listRefItemsFn(ctx)
	}
	return nil, nil
}

func (f *fakeClient) ListPlans(ctx context.Context, includeArchived bool) ([]models.Plan, error) {
	if f.listPlansFn != nil {
		return f.listPlansFn(ctx, includeArchived)
	}
	return nil, nil
}

func (f *fakeClient) CreatePlan(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	if f.createPlanFn != nil {
		return f.createPlanFn(ctx, p)
	}
	out := *p
	return &out, nil
}

func (f *fakeClient) UpdatePlan(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	if f.updatePlanFn != nil {
		return f.updatePlanFn(ctx, p)
	}
	out := *p
	return &out, nil
}

func (f *fakeClient) ArchivePlan(ctx context.Context, id int64) error {
	if f.archivePlanFn != nil {
		return f.archivePlanFn(ctx, id)
	}
	return nil
}

func (f *fakeClient) RestorePlan(ctx context.Context, id int64) error {
	if f.restorePlanFn != nil {
		return f.restorePlanFn(ctx, id)
	}
	return nil
}

func (f *fakeClient) DeletePlan(ctx context.Context, id int64) error {
	if f.deletePlanFn != nil {
		return f.deletePlanFn(ctx, id)
	}
	return nil
}

func (f *fakeClient) ListActivities(ctx context.Context, limit int) ([]api.RemoteActivity, error) {
	if f.listActivitiesFn != nil {
		return f.listActivitiesFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeClient) CreateActivity(ctx context.Context, req *api.ActivityCreate) (int64, error) {
	if f.createActivityFn != nil {
		return f.createActivityFn(ctx, req)
	}
	return 1, nil
}

func (f *fakeClient) UpdateActivity(ctx context.Context, remoteID int64, req *api.ActivityUpdate) error {
	if f.updateActivityFn != nil {
		return f.updateActivityFn(ctx, remoteID, req)
	}
	return nil
}

func (f *fakeClient) CreateEntry(ctx context.Context, req *api.EntryCreate) (int64, error) {
	if f.createEntryFn != nil {
		return f.createEntryFn(ctx, req)
	}
	return 1, nil
}

func (f *fakeClient) UpdateEntry(ctx context.Context, remoteID int64, req *api.EntryUpdate) error {
	if f.updateEntryFn != nil {
		return f.updateEntryFn(ctx, remoteID, req)
	}
	return nil
}

func (f *fakeClient) SubmitOutbox(ctx context.Context, events []models.OutboxEvent) error {
	if f.submitOutboxFn != nil {
		return f.submitOutboxFn(ctx, events)
	}
	return nil
}

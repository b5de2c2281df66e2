package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/client/storage"
	"github.com/dmitrijs2005/traintrack/internal/logging"
)

// TrainingService is the local-first write surface of the app. Every
// mutation lands in the local store immediately, tagged with a sync
// status the engine later uses to push it; no call here ever waits on
// the network.
type TrainingService interface {
	ReferenceItems(ctx context.Context) ([]models.ReferenceItem, error)

	Plans(ctx context.Context, includeArchived bool) ([]models.Plan, error)
	Plan(ctx context.Context, id int64) (*models.Plan, error)
	CreatePlan(ctx context.Context, p *models.Plan) (int64, error)
	UpdatePlan(ctx context.Context, p *models.Plan) error
	ArchivePlan(ctx context.Context, id int64) error
	RestorePlan(ctx context.Context, id int64) error
	DeletePlan(ctx context.Context, id int64) error

	StartActivity(ctx context.Context, planID *int64, dayIndex *int) (int64, error)
	FinishActivity(ctx context.Context, localID int64, note string) error
	History(ctx context.Context, limit int) ([]models.Activity, error)
	Activity(ctx context.Context, localID int64) (*models.Activity, []models.ActivityEntry, error)

	LogEntry(ctx context.Context, e *models.ActivityEntry) (int64, error)
	UpdateEntry(ctx context.Context, e *models.ActivityEntry) error
}

type trainingService struct {
	repos  *storage.Repositories
	engine *SyncEngine
	log    logging.Logger
}

// NewTrainingService constructs the local-first write service. The engine
// is used only to queue outbox events and to nudge a pass after a write.
func NewTrainingService(repos *storage.Repositories, engine *SyncEngine, log logging.Logger) TrainingService {
	return &trainingService{repos: repos, engine: engine, log: log}
}

func (s *trainingService) ReferenceItems(ctx context.Context) ([]models.ReferenceItem, error) {
	return s.repos.ReferenceItems.GetAll(ctx)
}

func (s *trainingService) Plans(ctx context.Context, includeArchived bool) ([]models.Plan, error) {
	return s.repos.Plans.GetAll(ctx, includeArchived)
}

func (s *trainingService) Plan(ctx context.Context, id int64) (*models.Plan, error) {
	return s.repos.Plans.GetByID(ctx, id)
}

func (s *trainingService) CreatePlan(ctx context.Context, p *models.Plan) (int64, error) {
	p.SyncStatus = models.StatusCreated
	return s.repos.Plans.Insert(ctx, p)
}

// UpdatePlan saves plan edits. A plan the server has never seen stays
// "created"; an already synced one becomes "updated".
func (s *trainingService) UpdatePlan(ctx context.Context, p *models.Plan) error {
	current, err := s.repos.Plans.GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	if current.SyncStatus == models.StatusCreated {
		p.SyncStatus = models.StatusCreated
	} else {
		p.SyncStatus = models.StatusUpdated
	}
	return s.repos.Plans.Update(ctx, p)
}

// ArchivePlan soft-deletes a plan. For a plan the server already knows,
// the archive itself travels as an outbox event; the row stays in place
// (hidden from default listings) until the retention purge removes it.
func (s *trainingService) ArchivePlan(ctx context.Context, id int64) error {
	p, err := s.repos.Plans.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	now := time.Now().UTC()
	p.ArchivedAt = &now
	if err := s.repos.Plans.Update(ctx, p); err != nil {
		return err
	}
	// A plan created offline has no server id to archive; its archived_at
	// travels with the create push instead.
	if p.SyncStatus == models.StatusCreated {
		return nil
	}
	return s.engine.QueuePlanEvent(ctx, models.EventPlanArchive, id)
}

// RestorePlan undoes a soft delete.
func (s *trainingService) RestorePlan(ctx context.Context, id int64) error {
	p, err := s.repos.Plans.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	p.ArchivedAt = nil
	if err := s.repos.Plans.Update(ctx, p); err != nil {
		return err
	}
	if p.SyncStatus == models.StatusCreated {
		return nil
	}
	return s.engine.QueuePlanEvent(ctx, models.EventPlanRestore, id)
}

// DeletePlan removes a plan permanently. Activities keep their plan
// reference; history rendering tolerates a missing plan.
func (s *trainingService) DeletePlan(ctx context.Context, id int64) error {
	p, err := s.repos.Plans.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	if err := s.repos.Plans.Delete(ctx, id); err != nil {
		return err
	}
	if p.SyncStatus == models.StatusCreated {
		// Never reached the server, nothing to tell it.
		return nil
	}
	return s.engine.QueuePlanEvent(ctx, models.EventPlanDelete, id)
}

func (s *trainingService) StartActivity(ctx context.Context, planID *int64, dayIndex *int) (int64, error) {
	a := &models.Activity{
		PlanID:     planID,
		DayIndex:   dayIndex,
		StartedAt:  time.Now().UTC(),
		SyncStatus: models.StatusCreated,
	}
	return s.repos.Activities.Insert(ctx, a)
}

// FinishActivity stamps the completion time and nudges a sync pass so a
// finished session reaches the server as soon as possible.
func (s *trainingService) FinishActivity(ctx context.Context, localID int64, note string) error {
	a, err := s.repos.Activities.GetByLocalID(ctx, localID)
	if err != nil {
		return fmt.Errorf("failed to load activity: %w", err)
	}
	now := time.Now().UTC()
	a.CompletedAt = &now
	if note != "" {
		a.Note = note
	}
	if a.SyncStatus == models.StatusSynced {
		a.SyncStatus = models.StatusUpdated
	}
	if err := s.repos.Activities.Update(ctx, a); err != nil {
		return err
	}
	go s.engine.RunPass(context.WithoutCancel(ctx))
	return nil
}

func (s *trainingService) History(ctx context.Context, limit int) ([]models.Activity, error) {
	return s.repos.Activities.GetRecent(ctx, limit)
}

func (s *trainingService) Activity(ctx context.Context, localID int64) (*models.Activity, []models.ActivityEntry, error) {
	a, err := s.repos.Activities.GetByLocalID(ctx, localID)
	if err != nil {
		return nil, nil, err
	}
	es, err := s.repos.Entries.GetByActivity(ctx, localID)
	if err != nil {
		return nil, nil, err
	}
	return a, es, nil
}

// LogEntry records one performed set under an activity, referenced by its
// local id.
func (s *trainingService) LogEntry(ctx context.Context, e *models.ActivityEntry) (int64, error) {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = time.Now().UTC()
	}
	e.SyncStatus = models.StatusCreated
	return s.repos.Entries.Insert(ctx, e)
}

// UpdateEntry saves edits to a logged set.
func (s *trainingService) UpdateEntry(ctx context.Context, e *models.ActivityEntry) error {
	current, err := s.repos.Entries.GetByLocalID(ctx, e.LocalID)
	if err != nil {
		return fmt.Errorf("failed to load entry: %w", err)
	}
	if current.SyncStatus == models.StatusSynced {
		e.SyncStatus = models.StatusUpdated
	} else {
		e.SyncStatus = current.SyncStatus
	}
	e.RemoteID = current.RemoteID
	return s.repos.Entries.Update(ctx, e)
}

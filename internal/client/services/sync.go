package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/activities"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/plans"
	"github.com/dmitrijs2005/traintrack/internal/client/storage"
	"github.com/dmitrijs2005/traintrack/internal/dbx"
	"github.com/dmitrijs2005/traintrack/internal/logging"
)

// SyncEngine pushes dirty local rows and queued outbox events to the
// server. Passes are sequential and coalesced: callers may trigger one at
// any time, but a pass requested while another is running is dropped, not
// queued, because the running pass already covers the same dirty set.
type SyncEngine struct {
	repos  *storage.Repositories
	client api.Client
	log    logging.Logger
	mu     sync.Mutex
}

// ItemResult records the outcome of pushing one item during a pass.
type ItemResult struct {
	Kind    string
	LocalID int64
	Err     error
}

// PassReport summarizes one sync pass. Ran is false when the pass was
// coalesced into an already running one.
type PassReport struct {
	Ran     bool
	Offline bool
	Items   []ItemResult
}

// Failed returns the number of items whose push failed.
func (r *PassReport) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}

func (r *PassReport) record(kind string, localID int64, err error) {
	r.Items = append(r.Items, ItemResult{Kind: kind, LocalID: localID, Err: err})
}

// NewSyncEngine constructs a SyncEngine.
func NewSyncEngine(repos *storage.Repositories, client api.Client, log logging.Logger) *SyncEngine {
	return &SyncEngine{repos: repos, client: client, log: log}
}

// RunPass executes one full sync pass: outbox events, then plans, then
// activities, then a sweep of remaining dirty entries. A failed item is
// logged and skipped so one bad row never blocks the rest; the row stays
// dirty and is retried on the next pass. Going offline mid-pass aborts
// the remainder of the pass.
func (s *SyncEngine) RunPass(ctx context.Context) *PassReport {
	if !s.mu.TryLock() {
		return &PassReport{}
	}
	defer s.mu.Unlock()

	report := &PassReport{Ran: true}
	if err := s.client.Ping(ctx); err != nil {
		report.Offline = true
		s.log.Info(ctx, "skipping sync pass, server unreachable")
		return report
	}

	for _, stage := range []func(context.Context, *PassReport) error{
		s.drainOutbox,
		s.pushPlans,
		s.pushActivities,
		s.sweepEntries,
	} {
		if err := stage(ctx, report); err != nil {
			if errors.Is(err, api.ErrOffline) {
				report.Offline = true
				s.log.Warn(ctx, "connection lost mid-pass, aborting")
			} else {
				s.log.Error(ctx, "sync pass aborted", "error", err)
			}
			return report
		}
	}

	if n := report.Failed(); n > 0 {
		s.log.Warn(ctx, "sync pass finished with failures", "pushed", len(report.Items)-n, "failed", n)
	} else if len(report.Items) > 0 {
		s.log.Info(ctx, "sync pass finished", "pushed", len(report.Items))
	}
	return report
}

// drainOutbox delivers queued events. Plan lifecycle events go to their
// dedicated endpoints one by one; everything else ships in a single
// batch. An event is deleted only after the server confirms it, so
// delivery is at least once.
func (s *SyncEngine) drainOutbox(ctx context.Context, report *PassReport) error {
	events, err := s.repos.Outbox.GetUnprocessed(ctx)
	if err != nil {
		return fmt.Errorf("failed to load outbox: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	var batch []models.OutboxEvent
	for _, ev := range events {
		switch ev.EventType {
		case models.EventPlanArchive, models.EventPlanRestore, models.EventPlanDelete:
			err := s.dispatchPlanEvent(ctx, &ev)
			if errors.Is(err, api.ErrOffline) {
				return err
			}
			if err == nil {
				err = s.repos.Outbox.Delete(ctx, ev.ID)
			}
			report.record("outbox:"+ev.EventType, ev.ID, err)
			if err != nil {
				s.log.Error(ctx, "failed to deliver outbox event", "id", ev.ID, "type", ev.EventType, "error", err)
			}
		default:
			batch = append(batch, ev)
		}
	}

	if len(batch) == 0 {
		return nil
	}
	if err := s.client.SubmitOutbox(ctx, batch); err != nil {
		if errors.Is(err, api.ErrOffline) {
			return err
		}
		for _, ev := range batch {
			report.record("outbox:"+ev.EventType, ev.ID, err)
		}
		s.log.Error(ctx, "failed to deliver outbox batch", "count", len(batch), "error", err)
		return nil
	}
	for _, ev := range batch {
		report.record("outbox:"+ev.EventType, ev.ID, s.repos.Outbox.Delete(ctx, ev.ID))
	}
	return nil
}

func (s *SyncEngine) dispatchPlanEvent(ctx context.Context, ev *models.OutboxEvent) error {
	var payload models.PlanEventPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	var err error
	switch ev.EventType {
	case models.EventPlanArchive:
		err = s.client.ArchivePlan(ctx, payload.PlanID)
	case models.EventPlanRestore:
		err = s.client.RestorePlan(ctx, payload.PlanID)
	case models.EventPlanDelete:
		err = s.client.DeletePlan(ctx, payload.PlanID)
	}
	// Duplicate delivery of a lifecycle event may hit a plan that is
	// already gone. That counts as applied.
	var se *api.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil
	}
	return err
}

// pushPlans sends dirty plans. A locally created plan is replaced
// wholesale: the server copy, under its server-assigned id, takes the
// place of the provisional row, and activities pointing at the old id are
// repointed in the same transaction.
func (s *SyncEngine) pushPlans(ctx context.Context, report *PassReport) error {
	dirty, err := s.repos.Plans.GetDirty(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dirty plans: %w", err)
	}

	for i := range dirty {
		p := dirty[i]
		err := s.pushPlan(ctx, &p)
		if errors.Is(err, api.ErrOffline) {
			return err
		}
		report.record("plan", p.ID, err)
		if err != nil {
			s.log.Error(ctx, "failed to push plan", "id", p.ID, "error", err)
		}
	}
	return nil
}

func (s *SyncEngine) pushPlan(ctx context.Context, p *models.Plan) error {
	switch p.SyncStatus {
	case models.StatusCreated:
		remote, err := s.client.CreatePlan(ctx, p)
		if err != nil {
			return err
		}
		return s.replacePlan(ctx, p.ID, remote)

	case models.StatusUpdated:
		remote, err := s.client.UpdatePlan(ctx, p)
		if err != nil {
			return err
		}
		remote.SyncStatus = models.StatusSynced
		return s.repos.Plans.Put(ctx, remote)

	case models.StatusDeleted:
		if err := s.client.ArchivePlan(ctx, p.ID); err != nil {
			return err
		}
		return s.repos.Plans.SetStatus(ctx, p.ID, models.StatusSynced)

	default:
		return fmt.Errorf("unexpected sync status %q", p.SyncStatus)
	}
}

// replacePlan swaps the provisional local row for the server copy and
// repoints dependent activities, atomically.
func (s *SyncEngine) replacePlan(ctx context.Context, oldID int64, remote *models.Plan) error {
	return dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		planRepo := plans.NewSQLiteRepository(tx)
		if err := planRepo.Delete(ctx, oldID); err != nil {
			return err
		}
		remote.SyncStatus = models.StatusSynced
		if err := planRepo.Put(ctx, remote); err != nil {
			return err
		}
		return activities.NewSQLiteRepository(tx).ReassignPlan(ctx, oldID, remote.ID)
	})
}

// pushActivities sends dirty activities. The remote id is recorded the
// moment the server responds, before anything else, so a crash right
// after the response can never cause the same activity to be created
// twice.
func (s *SyncEngine) pushActivities(ctx context.Context, report *PassReport) error {
	dirty, err := s.repos.Activities.GetDirty(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dirty activities: %w", err)
	}

	for i := range dirty {
		a := dirty[i]
		switch a.EffectiveStatus() {
		case models.StatusCreated:
			skip, err := s.planStillLocal(ctx, &a)
			if err == nil && skip {
				// The referenced plan has no server id yet; it is pushed
				// earlier in this pass, so this activity goes next pass.
				continue
			}
			if err == nil {
				err = s.createActivity(ctx, &a, report)
			}
			if errors.Is(err, api.ErrOffline) {
				return err
			}
			report.record("activity", a.LocalID, err)
			if err != nil {
				s.log.Error(ctx, "failed to push activity", "id", a.LocalID, "error", err)
			}

		case models.StatusUpdated:
			err := s.updateActivity(ctx, &a)
			if errors.Is(err, api.ErrOffline) {
				return err
			}
			report.record("activity", a.LocalID, err)
			if err != nil {
				s.log.Error(ctx, "failed to push activity update", "id", a.LocalID, "error", err)
			}
		}
	}
	return nil
}

// planStillLocal reports whether the activity references a plan that has
// not been assigned a server id yet.
func (s *SyncEngine) planStillLocal(ctx context.Context, a *models.Activity) (bool, error) {
	if a.PlanID == nil {
		return false, nil
	}
	p, err := s.repos.Plans.GetByID(ctx, *a.PlanID)
	if err != nil {
		// A dangling plan reference must not strand the activity forever.
		return false, nil
	}
	return p.SyncStatus == models.StatusCreated, nil
}

func (s *SyncEngine) createActivity(ctx context.Context, a *models.Activity, report *PassReport) error {
	req := &api.ActivityCreate{
		PlanID:      a.PlanID,
		DayIndex:    a.DayIndex,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		Note:        a.Note,
		LockedItems: a.LockedItems,
	}
	remoteID, err := s.client.CreateActivity(ctx, req)
	if err != nil {
		return err
	}
	if err := s.repos.Activities.MarkSynced(ctx, a.LocalID, remoteID); err != nil {
		return fmt.Errorf("pushed but failed to mark synced: %w", err)
	}

	// Push the activity's own dirty entries right away; any that fail stay
	// dirty and are retried by the sweep.
	dirtyEntries, err := s.repos.Entries.GetDirtyByActivity(ctx, a.LocalID)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	for i := range dirtyEntries {
		e := dirtyEntries[i]
		err := s.pushEntry(ctx, &e, remoteID)
		if errors.Is(err, api.ErrOffline) {
			return err
		}
		report.record("entry", e.LocalID, err)
		if err != nil {
			s.log.Error(ctx, "failed to push entry", "id", e.LocalID, "error", err)
		}
	}
	return nil
}

func (s *SyncEngine) updateActivity(ctx context.Context, a *models.Activity) error {
	req := &api.ActivityUpdate{
		StartedAt:   &a.StartedAt,
		CompletedAt: a.CompletedAt,
		Note:        &a.Note,
		LockedItems: a.LockedItems,
	}
	if err := s.client.UpdateActivity(ctx, *a.RemoteID, req); err != nil {
		return err
	}
	return s.repos.Activities.SetStatus(ctx, a.LocalID, models.StatusSynced)
}

// sweepEntries pushes dirty entries whose owning activity already has a
// remote id. Entries under a still-unpushed activity are left for a later
// pass.
func (s *SyncEngine) sweepEntries(ctx context.Context, report *PassReport) error {
	dirty, err := s.repos.Entries.GetDirty(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dirty entries: %w", err)
	}

	for i := range dirty {
		e := dirty[i]
		parent, err := s.repos.Activities.GetByLocalID(ctx, e.ActivityID)
		if err != nil {
			report.record("entry", e.LocalID, fmt.Errorf("failed to load owning activity: %w", err))
			continue
		}
		if parent.RemoteID == nil {
			continue
		}
		err = s.pushEntry(ctx, &e, *parent.RemoteID)
		if errors.Is(err, api.ErrOffline) {
			return err
		}
		report.record("entry", e.LocalID, err)
		if err != nil {
			s.log.Error(ctx, "failed to push entry", "id", e.LocalID, "error", err)
		}
	}
	return nil
}

// pushEntry transmits one dirty entry. The owning reference is resolved
// to the activity's remote id here, at the moment of transmission.
func (s *SyncEngine) pushEntry(ctx context.Context, e *models.ActivityEntry, activityRemoteID int64) error {
	switch e.EffectiveStatus() {
	case models.StatusCreated:
		req := &api.EntryCreate{
			ActivityID:      activityRemoteID,
			ReferenceItemID: e.ReferenceItemID,
			Ordinal:         e.Ordinal,
			WeightKg:        e.WeightKg,
			Reps:            e.Reps,
			DurationSec:     e.DurationSec,
			Effort:          e.Effort,
		}
		if !e.CompletedAt.IsZero() {
			t := e.CompletedAt
			req.CompletedAt = &t
		}
		remoteID, err := s.client.CreateEntry(ctx, req)
		if err != nil {
			return err
		}
		return s.repos.Entries.MarkSynced(ctx, e.LocalID, remoteID)

	case models.StatusUpdated:
		req := &api.EntryUpdate{
			WeightKg: e.WeightKg,
			Reps:     e.Reps,
			Ordinal:  &e.Ordinal,
		}
		if err := s.client.UpdateEntry(ctx, *e.RemoteID, req); err != nil {
			return err
		}
		return s.repos.Entries.MarkSynced(ctx, e.LocalID, *e.RemoteID)

	default:
		return fmt.Errorf("unexpected sync status %q", e.SyncStatus)
	}
}

// QueuePlanEvent records a plan lifecycle side effect for later delivery.
func (s *SyncEngine) QueuePlanEvent(ctx context.Context, eventType string, planID int64) error {
	payload, err := json.Marshal(models.PlanEventPayload{PlanID: planID})
	if err != nil {
		return err
	}
	_, err = s.repos.Outbox.Add(ctx, &models.OutboxEvent{
		EventType:       eventType,
		Payload:         payload,
		ClientTimestamp: time.Now().UTC(),
	})
	return err
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/activities"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/entries"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/plans"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/refitems"
	"github.com/dmitrijs2005/traintrack/internal/client/storage"
	"github.com/dmitrijs2005/traintrack/internal/dbx"
	"github.com/dmitrijs2005/traintrack/internal/logging"
)

// Bootstrap rebuilds the local mirrors from the remote source of truth.
// It runs once per successful authentication (or on manual trigger) and
// must never destroy rows that carry unsynced local edits: those are
// captured before the destructive refresh and stitched back in
// afterwards, merged by remote id where the server copy was re-imported.
type Bootstrap struct {
	repos     *storage.Repositories
	client    api.Client
	log       logging.Logger
	history   int
	retention time.Duration
}

// BootstrapReport summarizes one bootstrap run.
type BootstrapReport struct {
	ReferenceItems      int
	Plans               int
	Activities          int
	PreservedActivities int
	PreservedEntries    int
	PurgedPlans         int
}

// NewBootstrap constructs a Bootstrap. history is the number of recent
// activities pulled; retention is how long soft-deleted plans are kept
// before the local hard delete.
func NewBootstrap(repos *storage.Repositories, client api.Client, log logging.Logger, history int, retention time.Duration) *Bootstrap {
	return &Bootstrap{repos: repos, client: client, log: log, history: history, retention: retention}
}

// Run executes the full refresh: reference items, plans, then activities
// with their entries. Each stage fetches before it deletes, so a failed
// fetch leaves the corresponding local mirror untouched.
func (b *Bootstrap) Run(ctx context.Context) (*BootstrapReport, error) {
	report := &BootstrapReport{}

	if err := b.refreshReferenceItems(ctx, report); err != nil {
		return nil, err
	}
	if err := b.refreshPlans(ctx, report); err != nil {
		return nil, err
	}
	if err := b.refreshActivities(ctx, report); err != nil {
		return nil, err
	}
	b.cacheProfile(ctx)

	b.log.Info(ctx, "bootstrap complete",
		"reference_items", report.ReferenceItems,
		"plans", report.Plans,
		"activities", report.Activities,
		"preserved_activities", report.PreservedActivities,
		"preserved_entries", report.PreservedEntries)
	return report, nil
}

// refreshReferenceItems replaces the whole catalog mirror. Safe: the
// mirror is read-only, last pull wins.
func (b *Bootstrap) refreshReferenceItems(ctx context.Context, report *BootstrapReport) error {
	items, err := b.client.ListReferenceItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch reference items: %w", err)
	}

	err = dbx.WithTx(ctx, b.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := refitems.NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		return repo.UpsertAll(ctx, items)
	})
	if err != nil {
		return fmt.Errorf("failed to replace reference items: %w", err)
	}
	report.ReferenceItems = len(items)
	return nil
}

// refreshPlans replaces the plan mirror except rows that carry unsynced
// local edits: those keep their local state and are picked up by the sync
// engine separately. Soft-deleted plans older than the retention window
// are hard-deleted locally afterwards.
func (b *Bootstrap) refreshPlans(ctx context.Context, report *BootstrapReport) error {
	remote, err := b.client.ListPlans(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to fetch plans: %w", err)
	}

	err = dbx.WithTx(ctx, b.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := plans.NewSQLiteRepository(tx)

		dirty, err := repo.GetDirty(ctx)
		if err != nil {
			return err
		}
		dirtyIDs := make(map[int64]struct{}, len(dirty))
		for _, p := range dirty {
			dirtyIDs[p.ID] = struct{}{}
		}

		if err := repo.DeleteSyncedRows(ctx); err != nil {
			return err
		}
		for i := range remote {
			p := remote[i]
			// A dirty local row under the same id holds edits the server
			// has not seen yet; the local copy wins until it is pushed.
			if _, ok := dirtyIDs[p.ID]; ok {
				continue
			}
			p.SyncStatus = models.StatusSynced
			if err := repo.Put(ctx, &p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace plans: %w", err)
	}
	report.Plans = len(remote)

	purged, err := b.repos.Plans.PurgeArchivedBefore(ctx, time.Now().Add(-b.retention))
	if err != nil {
		return fmt.Errorf("failed to purge archived plans: %w", err)
	}
	report.PurgedPlans = len(purged)
	return nil
}

// refreshActivities is the preserve-dirty-rows-across-a-destructive-refresh
// dance. Dirty activities and entries (and the parents of dirty entries)
// are captured in memory, the collections are cleared and rebuilt from
// the server, and the captured rows are stitched back in with their
// owning references remapped to the freshly assigned local ids.
func (b *Bootstrap) refreshActivities(ctx context.Context, report *BootstrapReport) error {
	remote, err := b.client.ListActivities(ctx, b.history)
	if err != nil {
		return fmt.Errorf("failed to fetch activities: %w", err)
	}

	err = dbx.WithTx(ctx, b.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		actRepo := activities.NewSQLiteRepository(tx)
		entryRepo := entries.NewSQLiteRepository(tx)

		dirtyActs, err := actRepo.GetDirty(ctx)
		if err != nil {
			return err
		}
		dirtyEntries, err := entryRepo.GetDirty(ctx)
		if err != nil {
			return err
		}

		// Parents of dirty entries must survive too, even when the parent
		// itself is clean: a clean parent outside the fetched history
		// window would otherwise leave its dirty entries dangling.
		oldParents := make(map[int64]*models.Activity)
		for i := range dirtyActs {
			a := dirtyActs[i]
			oldParents[a.LocalID] = &a
		}
		for _, e := range dirtyEntries {
			if _, ok := oldParents[e.ActivityID]; ok {
				continue
			}
			parent, err := actRepo.GetByLocalID(ctx, e.ActivityID)
			if err != nil {
				return fmt.Errorf("failed to load parent of dirty entry %d: %w", e.LocalID, err)
			}
			oldParents[parent.LocalID] = parent
		}

		// Entries first so a failure part-way never leaves entries
		// pointing at activities that are already gone.
		if err := entryRepo.Clear(ctx); err != nil {
			return err
		}
		if err := actRepo.Clear(ctx); err != nil {
			return err
		}

		// Rebuild the mirror, letting the store assign fresh local ids,
		// and remember server id -> new local id.
		localByRemote := make(map[int64]int64, len(remote))
		for _, ra := range remote {
			a := activityFromRemote(&ra)
			localID, err := actRepo.Insert(ctx, a)
			if err != nil {
				return err
			}
			localByRemote[ra.ID] = localID

			for _, re := range ra.Entries {
				e := entryFromRemote(&re, localID)
				if _, err := entryRepo.Insert(ctx, e); err != nil {
					return err
				}
			}
		}

		// Stitch captured dirty activities back in. A captured row whose
		// remote id was just re-imported overwrites the clean server copy
		// in place instead of duplicating it.
		remap := make(map[int64]int64, len(oldParents))
		for oldLocalID, a := range oldParents {
			newLocalID, err := restoreActivity(ctx, actRepo, a, localByRemote)
			if err != nil {
				return err
			}
			remap[oldLocalID] = newLocalID
			if a.SyncStatus.Dirty() {
				report.PreservedActivities++
			}
		}

		// Stitch captured dirty entries back in, repointing the owning
		// reference and merging by remote id where possible.
		for i := range dirtyEntries {
			e := dirtyEntries[i]
			newParentID, ok := remap[e.ActivityID]
			if !ok {
				// Parent was captured above, so this cannot happen; skip
				// rather than insert a dangling reference.
				b.log.Error(ctx, "dirty entry lost its parent during bootstrap", "entry", e.LocalID)
				continue
			}
			if err := restoreEntry(ctx, entryRepo, &e, newParentID); err != nil {
				return err
			}
			report.PreservedEntries++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace activities: %w", err)
	}
	report.Activities = len(remote)
	return nil
}

// restoreActivity re-inserts a captured activity, or merges it into the
// freshly imported row carrying the same remote id. Returns the new local
// id of the surviving row.
func restoreActivity(ctx context.Context, repo activities.Repository, a *models.Activity, localByRemote map[int64]int64) (int64, error) {
	if a.RemoteID != nil {
		if newLocalID, ok := localByRemote[*a.RemoteID]; ok {
			merged := *a
			merged.LocalID = newLocalID
			if err := repo.Update(ctx, &merged); err != nil {
				return 0, err
			}
			return newLocalID, nil
		}
	}
	fresh := *a
	fresh.LocalID = 0
	return repo.Insert(ctx, &fresh)
}

// restoreEntry re-inserts a captured dirty entry under its re-pointed
// parent, or merges it into the imported row with the same remote id.
func restoreEntry(ctx context.Context, repo entries.Repository, e *models.ActivityEntry, newParentID int64) error {
	if e.RemoteID != nil {
		existing, err := repo.GetByRemoteID(ctx, *e.RemoteID)
		if err != nil {
			return err
		}
		if existing != nil {
			merged := *e
			merged.LocalID = existing.LocalID
			merged.ActivityID = newParentID
			return repo.Update(ctx, &merged)
		}
	}
	fresh := *e
	fresh.LocalID = 0
	fresh.ActivityID = newParentID
	_, err := repo.Insert(ctx, &fresh)
	return err
}

func activityFromRemote(ra *api.RemoteActivity) *models.Activity {
	remoteID := ra.ID
	return &models.Activity{
		RemoteID:    &remoteID,
		PlanID:      ra.PlanID,
		DayIndex:    ra.DayIndex,
		StartedAt:   ra.StartedAt,
		CompletedAt: ra.CompletedAt,
		Note:        ra.Note,
		LockedItems: ra.LockedItems,
		SyncStatus:  models.StatusSynced,
	}
}

func entryFromRemote(re *api.RemoteEntry, activityLocalID int64) *models.ActivityEntry {
	remoteID := re.ID
	e := &models.ActivityEntry{
		RemoteID:        &remoteID,
		ActivityID:      activityLocalID,
		ReferenceItemID: re.ReferenceItemID,
		Ordinal:         re.Ordinal,
		WeightKg:        re.WeightKg,
		Reps:            re.Reps,
		DurationSec:     re.DurationSec,
		Effort:          re.Effort,
		SyncStatus:      models.StatusSynced,
	}
	if re.CompletedAt != nil {
		e.CompletedAt = *re.CompletedAt
	}
	return e
}

// cacheProfile refreshes the locally cached profile copy. Best effort.
func (b *Bootstrap) cacheProfile(ctx context.Context) {
	p, err := b.client.GetProfile(ctx)
	if err != nil {
		b.log.Warn(ctx, "failed to refresh profile cache", "error", err)
		return
	}
	if bts, err := json.Marshal(p); err == nil {
		if err := b.repos.Metadata.Set(ctx, metadata.KeyProfile, bts); err != nil {
			b.log.Warn(ctx, "failed to cache profile", "error", err)
		}
	}
}

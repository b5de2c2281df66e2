package activities

import (
	"context"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// Repository describes storage operations for activities (training
// sessions). Local ids are assigned by the store and never reused; the
// remote id stays NULL until the first successful push.
type Repository interface {
	// Insert adds an activity and returns the generated local id.
	Insert(ctx context.Context, a *models.Activity) (int64, error)

	// GetByLocalID returns one activity. Returns sql.ErrNoRows if absent.
	GetByLocalID(ctx context.Context, localID int64) (*models.Activity, error)

	// GetByRemoteID returns the activity carrying the given remote id,
	// or nil if no local row has learned that id.
	GetByRemoteID(ctx context.Context, remoteID int64) (*models.Activity, error)

	// GetRecent lists activities newest-first, up to limit.
	GetRecent(ctx context.Context, limit int) ([]models.Activity, error)

	// GetDirty lists activities with sync status created or updated.
	GetDirty(ctx context.Context) ([]models.Activity, error)

	// Update rewrites all mutable fields of an activity by local id.
	Update(ctx context.Context, a *models.Activity) error

	// MarkSynced records the server-assigned id and flips the row to synced.
	MarkSynced(ctx context.Context, localID, remoteID int64) error

	// SetStatus sets just the sync status of an activity.
	SetStatus(ctx context.Context, localID int64, status models.SyncStatus) error

	// ReassignPlan repoints activities from one plan id to another. Used
	// when a locally created plan is replaced by its server-assigned row.
	ReassignPlan(ctx context.Context, oldPlanID, newPlanID int64) error

	// Delete removes an activity row.
	Delete(ctx context.Context, localID int64) error

	// Clear removes all activities.
	Clear(ctx context.Context) error
}

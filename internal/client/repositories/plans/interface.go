package plans

import (
	"context"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// Repository describes storage operations for plans.
//
// Plan identity is asymmetric: rows mirrored from the server keep the
// server id as their primary key (Put), while plans created offline get a
// local autoincrement id (Insert) that is replaced wholesale once the
// server assigns the real one.
type Repository interface {
	// Insert adds a locally created plan and returns the generated local id.
	Insert(ctx context.Context, p *models.Plan) (int64, error)

	// Put inserts or replaces a plan under its explicit (server) id.
	Put(ctx context.Context, p *models.Plan) error

	// GetByID returns one plan. Returns sql.ErrNoRows if absent.
	GetByID(ctx context.Context, id int64) (*models.Plan, error)

	// GetAll lists plans; archived ones are included only when asked for.
	GetAll(ctx context.Context, includeArchived bool) ([]models.Plan, error)

	// GetDirty lists plans whose sync status is not "synced".
	GetDirty(ctx context.Context) ([]models.Plan, error)

	// Update rewrites all mutable fields of a plan by id.
	Update(ctx context.Context, p *models.Plan) error

	// SetStatus sets just the sync status of a plan.
	SetStatus(ctx context.Context, id int64, status models.SyncStatus) error

	// Delete removes a plan row.
	Delete(ctx context.Context, id int64) error

	// DeleteSyncedRows removes every plan that carries no unsynced local
	// edits. Bootstrap uses it to make room for the fresh server mirror
	// while never destroying dirty rows.
	DeleteSyncedRows(ctx context.Context) error

	// PurgeArchivedBefore hard-deletes plans archived before the cutoff
	// and returns the ids that were removed.
	PurgeArchivedBefore(ctx context.Context, cutoff time.Time) ([]int64, error)

	// Clear removes all plans.
	Clear(ctx context.Context) error
}

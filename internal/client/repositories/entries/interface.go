package entries

import (
	"context"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// Repository describes storage operations for activity entries (logged
// sets). The owning-activity reference is ALWAYS the activity's local id;
// it is resolved to the remote id only when an entry is transmitted.
type Repository interface {
	// Insert adds an entry and returns the generated local id.
	Insert(ctx context.Context, e *models.ActivityEntry) (int64, error)

	// GetByLocalID returns one entry. Returns sql.ErrNoRows if absent.
	GetByLocalID(ctx context.Context, localID int64) (*models.ActivityEntry, error)

	// GetByRemoteID returns the entry carrying the given remote id, or nil
	// if no local row has learned that id.
	GetByRemoteID(ctx context.Context, remoteID int64) (*models.ActivityEntry, error)

	// GetByActivity lists entries owned by an activity local id, in
	// ordinal order.
	GetByActivity(ctx context.Context, activityLocalID int64) ([]models.ActivityEntry, error)

	// GetDirtyByActivity lists an activity's entries with status created
	// or updated.
	GetDirtyByActivity(ctx context.Context, activityLocalID int64) ([]models.ActivityEntry, error)

	// GetDirty lists all entries with status created or updated.
	GetDirty(ctx context.Context) ([]models.ActivityEntry, error)

	// Update rewrites all mutable fields of an entry by local id.
	Update(ctx context.Context, e *models.ActivityEntry) error

	// MarkSynced records the server-assigned id and flips the row to synced.
	MarkSynced(ctx context.Context, localID, remoteID int64) error

	// Delete removes an entry row.
	Delete(ctx context.Context, localID int64) error

	// DeleteByActivity removes every entry owned by the given activity
	// local id (orphan cleanup after an activity delete).
	DeleteByActivity(ctx context.Context, activityLocalID int64) error

	// Clear removes all entries.
	Clear(ctx context.Context) error
}

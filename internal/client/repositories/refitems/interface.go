package refitems

import (
	"context"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// Repository describes storage operations for the reference item mirror.
// The mirror is read-only from the app's point of view: it is rebuilt
// wholesale from the server on every bootstrap, last pull wins.
type Repository interface {
	// Upsert inserts or replaces a single catalog entry by its server id.
	Upsert(ctx context.Context, item *models.ReferenceItem) error

	// UpsertAll replaces the given entries. Callers wanting the bulk write
	// to be atomic run it inside dbx.WithTx.
	UpsertAll(ctx context.Context, items []models.ReferenceItem) error

	// GetByID returns one catalog entry.
	GetByID(ctx context.Context, id int64) (*models.ReferenceItem, error)

	// GetAll lists the whole catalog ordered by name.
	GetAll(ctx context.Context) ([]models.ReferenceItem, error)

	// Clear removes the whole mirror.
	Clear(ctx context.Context) error
}

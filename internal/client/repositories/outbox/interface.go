package outbox

import (
	"context"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// Repository describes storage operations for queued outbox events.
// Delivery is at-least-once: events survive until a pass confirms the
// remote side accepted them, so handlers must tolerate duplicates.
type Repository interface {
	// Add queues an event and returns its generated id.
	Add(ctx context.Context, ev *models.OutboxEvent) (int64, error)

	// GetUnprocessed lists queued events in insertion order.
	GetUnprocessed(ctx context.Context) ([]models.OutboxEvent, error)

	// Delete removes a delivered event.
	Delete(ctx context.Context, id int64) error

	// Clear removes all events.
	Clear(ctx context.Context) error
}

package models

import (
	"encoding/json"
	"time"
)

// Outbox event types understood by the sync engine. Events with a
// plan-lifecycle type are dispatched against the matching plan endpoint;
// everything else is shipped in a single outbox batch.
const (
	EventPlanArchive = "plan.archive"
	EventPlanRestore = "plan.restore"
	EventPlanDelete  = "plan.delete"
)

// OutboxEvent is a queued side effect not tied to a mirrored row, produced
// while offline and delivered at least once. Handlers must tolerate
// duplicate application.
type OutboxEvent struct {
	ID              int64           `json:"-"`
	EventType       string          `json:"event_type"`
	Payload         json.RawMessage `json:"payload"`
	ClientTimestamp time.Time       `json:"client_timestamp"`
	Processed       bool            `json:"-"`
}

// PlanEventPayload is the payload shape for the plan.* event types.
type PlanEventPayload struct {
	PlanID int64 `json:"plan_id"`
}

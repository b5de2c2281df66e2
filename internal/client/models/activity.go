package models

import "time"

// Activity is a training session. LocalID is assigned by the local store
// and never reused; RemoteID is learned on the first successful push and
// immutable afterwards.
type Activity struct {
	LocalID     int64
	RemoteID    *int64
	PlanID      *int64
	DayIndex    *int
	StartedAt   time.Time
	CompletedAt *time.Time
	Note        string
	LockedItems []int64
	SyncStatus  SyncStatus
}

// EffectiveStatus normalizes the contract violation where a row claims
// "updated" but was never assigned a remote id: such a row has to be
// treated as freshly created, because there is nothing remote to update.
func (a *Activity) EffectiveStatus() SyncStatus {
	if a.SyncStatus == StatusUpdated && a.RemoteID == nil {
		return StatusCreated
	}
	return a.SyncStatus
}

// ActivityEntry is one logged set within an activity. ActivityID always
// holds the owning activity's LOCAL id; it is resolved to the remote id
// only at the moment of transmission.
type ActivityEntry struct {
	LocalID         int64
	RemoteID        *int64
	ActivityID      int64
	ReferenceItemID int64
	Ordinal         int
	WeightKg        *float64
	Reps            *int
	DurationSec     *int
	Effort          *float64
	CompletedAt     time.Time
	SyncStatus      SyncStatus
}

// EffectiveStatus applies the same updated-without-remote-id rule as for
// activities.
func (e *ActivityEntry) EffectiveStatus() SyncStatus {
	if e.SyncStatus == StatusUpdated && e.RemoteID == nil {
		return StatusCreated
	}
	return e.SyncStatus
}

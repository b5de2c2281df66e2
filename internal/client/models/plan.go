package models

import "time"

// PlanItem is one prescribed exercise inside a plan day. Ordering within
// the day is the slice order.
type PlanItem struct {
	ReferenceItemID int64    `json:"exercise_id"`
	Sets            int      `json:"sets"`
	Reps            string   `json:"reps"`
	RestSec         int      `json:"rest,omitempty"`
	WeightKg        *float64 `json:"weight_kg,omitempty"`
	Locked          bool     `json:"locked,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// PlanDay is an ordered group of plan items under a display name.
type PlanDay struct {
	Name  string     `json:"day_name"`
	Items []PlanItem `json:"exercises"`
}

// Plan is a user routine. Its identity scheme is asymmetric: a plan
// fetched from the server keeps the server id as the local primary key,
// while a plan created offline gets a local autoincrement id that is
// discarded (row replaced) once the server assigns the real one.
type Plan struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Days        []PlanDay  `json:"days"`
	Favorite    bool       `json:"is_favorite,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	SyncStatus  SyncStatus `json:"-"`
}

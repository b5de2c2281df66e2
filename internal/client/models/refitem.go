package models

// ReferenceItem is a catalog entry (an exercise). Reference items are
// read-only mirrors: the server id is used directly as the local primary
// key and the whole mirror is replaced on each successful pull, so they
// carry no sync status.
type ReferenceItem struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Muscle          string   `json:"muscle,omitempty"`
	MuscleGroup     string   `json:"muscle_group,omitempty"`
	Equipment       string   `json:"equipment,omitempty"`
	Kind            string   `json:"type,omitempty"`
	Bodyweight      bool     `json:"is_bodyweight"`
	DefaultWeightKg *float64 `json:"default_weight_kg,omitempty"`
	Source          string   `json:"source,omitempty"`
	Custom          bool     `json:"custom,omitempty"`
}

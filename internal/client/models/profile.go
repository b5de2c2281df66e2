package models

// Profile is the authenticated user's profile and settings, cached locally
// so the app can restore its auth state while offline.
type Profile struct {
	ID       int64          `json:"id"`
	Email    string         `json:"email"`
	Active   bool           `json:"is_active"`
	Settings map[string]any `json:"settings,omitempty"`
	WeightKg *int           `json:"weight,omitempty"`
	HeightCm *int           `json:"height,omitempty"`
	Age      *int           `json:"age,omitempty"`
}

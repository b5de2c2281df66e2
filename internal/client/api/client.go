// Package api is the thin contract wrapper over the remote REST API.
// It attaches the bearer token, maps HTTP failures onto a small error
// taxonomy and performs no retries: retry policy belongs to the sync
// engine.
package api

import (
	"context"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// TokenSource supplies the bearer token for outgoing requests and is
// asked to drop it when the server rejects it.
type TokenSource interface {
	// Token returns the current bearer token, or "" when logged out.
	Token(ctx context.Context) (string, error)
	// Clear forgets the stored token (called on a 401).
	Clear(ctx context.Context) error
}

// RemoteEntry is the wire representation of a logged set.
type RemoteEntry struct {
	ID              int64      `json:"id"`
	ActivityID      int64      `json:"activity_id"`
	ReferenceItemID int64      `json:"reference_item_id"`
	Ordinal         int        `json:"ordinal"`
	WeightKg        *float64   `json:"weight_kg,omitempty"`
	Reps            *int       `json:"reps,omitempty"`
	DurationSec     *int       `json:"duration_sec,omitempty"`
	Effort          *float64   `json:"effort,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// RemoteActivity is the wire representation of a session, including its
// nested entries as returned by GET /activities.
type RemoteActivity struct {
	ID          int64         `json:"id"`
	PlanID      *int64        `json:"plan_id,omitempty"`
	DayIndex    *int          `json:"day_index,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Note        string        `json:"note,omitempty"`
	LockedItems []int64       `json:"locked_items,omitempty"`
	Entries     []RemoteEntry `json:"entries,omitempty"`
}

// ActivityCreate is the body of POST /activities.
type ActivityCreate struct {
	PlanID      *int64     `json:"plan_id,omitempty"`
	DayIndex    *int       `json:"day_index,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Note        string     `json:"note,omitempty"`
	LockedItems []int64    `json:"locked_items,omitempty"`
}

// ActivityUpdate carries the mutable fields of PUT /activities/{id}.
type ActivityUpdate struct {
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Note        *string    `json:"note,omitempty"`
	LockedItems []int64    `json:"locked_items,omitempty"`
}

// EntryCreate is the body of POST /activity-entries. ActivityID here is
// the server-side activity id: the local owning reference is resolved at
// the moment of transmission, never before.
type EntryCreate struct {
	ActivityID      int64      `json:"activity_id"`
	ReferenceItemID int64      `json:"reference_item_id"`
	Ordinal         int        `json:"ordinal"`
	WeightKg        *float64   `json:"weight_kg,omitempty"`
	Reps            *int       `json:"reps,omitempty"`
	DurationSec     *int       `json:"duration_sec,omitempty"`
	Effort          *float64   `json:"effort,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// EntryUpdate carries the mutable fields of PUT /activity-entries/{id}.
type EntryUpdate struct {
	WeightKg *float64 `json:"weight_kg,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	Ordinal  *int     `json:"ordinal,omitempty"`
}

// Credentials is the body of the auth endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client is the remote gateway surface consumed by the sync engine,
// bootstrap and auth service.
type Client interface {
	// Ping probes connectivity; it returns ErrOffline when the server
	// cannot be reached and nil on any HTTP response.
	Ping(ctx context.Context) error

	Login(ctx context.Context, creds Credentials) (token string, err error)
	Register(ctx context.Context, creds Credentials) (token string, err error)

	GetProfile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)

	ListReferenceItems(ctx context.Context) ([]models.ReferenceItem, error)
	CreateReferenceItem(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error)

	ListPlans(ctx context.Context, includeArchived bool) ([]models.Plan, error)
	CreatePlan(ctx context.Context, p *models.Plan) (*models.Plan, error)
	UpdatePlan(ctx context.Context, p *models.Plan) (*models.Plan, error)
	ArchivePlan(ctx context.Context, id int64) error
	RestorePlan(ctx context.Context, id int64) error
	DeletePlan(ctx context.Context, id int64) error

	ListActivities(ctx context.Context, limit int) ([]RemoteActivity, error)
	CreateActivity(ctx context.Context, req *ActivityCreate) (int64, error)
	UpdateActivity(ctx context.Context, remoteID int64, req *ActivityUpdate) error

	CreateEntry(ctx context.Context, req *EntryCreate) (int64, error)
	UpdateEntry(ctx context.Context, remoteID int64, req *EntryUpdate) error

	SubmitOutbox(ctx context.Context, events []models.OutboxEvent) error
}

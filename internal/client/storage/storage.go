// Package storage opens the local SQLite database, applies the embedded
// goose migrations and bundles the per-entity repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/traintrack/internal/client/migrations"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/activities"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/entries"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/plans"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/refitems"
)

// Repositories bundles every repository backed by one local database.
type Repositories struct {
	DB             *sql.DB
	ReferenceItems refitems.Repository
	Plans          plans.Repository
	Activities     activities.Repository
	Entries        entries.Repository
	Outbox         outbox.Repository
	Metadata       metadata.Repository
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn, migrates it
// and returns the repository bundle.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return New(db), nil
}

// New wraps an already-opened database in a repository bundle.
func New(db *sql.DB) *Repositories {
	return &Repositories{
		DB:             db,
		ReferenceItems: refitems.NewSQLiteRepository(db),
		Plans:          plans.NewSQLiteRepository(db),
		Activities:     activities.NewSQLiteRepository(db),
		Entries:        entries.NewSQLiteRepository(db),
		Outbox:         outbox.NewSQLiteRepository(db),
		Metadata:       metadata.NewSQLiteRepository(db),
	}
}

// Reset wipes every collection, leaving the schema in place. Entries go
// before activities so a crash mid-reset never leaves entries pointing at
// deleted activities.
func (r *Repositories) Reset(ctx context.Context) error {
	if err := r.Entries.Clear(ctx); err != nil {
		return err
	}
	if err := r.Activities.Clear(ctx); err != nil {
		return err
	}
	if err := r.Plans.Clear(ctx); err != nil {
		return err
	}
	if err := r.ReferenceItems.Clear(ctx); err != nil {
		return err
	}
	if err := r.Outbox.Clear(ctx); err != nil {
		return err
	}
	return r.Metadata.Clear(ctx)
}

// Close closes the underlying database.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// EnsureDeviceID returns the stable per-install identifier, generating and
// persisting a fresh one on first use.
func EnsureDeviceID(ctx context.Context, m metadata.Repository) (string, error) {
	v, err := m.Get(ctx, metadata.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if len(v) > 0 {
		return string(v), nil
	}
	id := uuid.NewString()
	if err := m.Set(ctx, metadata.KeyDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/dbx"
)

const timeLayout = time.RFC3339Nano

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.ActivityEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_entries
			(remote_id, activity_id, reference_item_id, ordinal, weight_kg, reps, duration_sec, effort, completed_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RemoteID, e.ActivityID, e.ReferenceItemID, e.Ordinal, e.WeightKg,
		e.Reps, e.DurationSec, e.Effort, e.CompletedAt.UTC().Format(timeLayout),
		string(e.SyncStatus))
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, localID int64) (*models.ActivityEntry, error) {
	row := r.db.QueryRowContext(ctx, selectCols+` WHERE local_id = ?`, localID)
	return scanEntry(row.Scan)
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID int64) (*models.ActivityEntry, error) {
	row := r.db.QueryRowContext(ctx, selectCols+` WHERE remote_id = ?`, remoteID)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *SQLiteRepository) GetByActivity(ctx context.Context, activityLocalID int64) ([]models.ActivityEntry, error) {
	return r.queryEntries(ctx,
		selectCols+` WHERE activity_id = ? ORDER BY reference_item_id, ordinal`, activityLocalID)
}

func (r *SQLiteRepository) GetDirtyByActivity(ctx context.Context, activityLocalID int64) ([]models.ActivityEntry, error) {
	return r.queryEntries(ctx,
		selectCols+` WHERE activity_id = ? AND sync_status IN ('created', 'updated') ORDER BY local_id`,
		activityLocalID)
}

func (r *SQLiteRepository) GetDirty(ctx context.Context) ([]models.ActivityEntry, error) {
	return r.queryEntries(ctx,
		selectCols+` WHERE sync_status IN ('created', 'updated') ORDER BY local_id`)
}

func (r *SQLiteRepository) Update(ctx context.Context, e *models.ActivityEntry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE activity_entries SET remote_id = ?, activity_id = ?, reference_item_id = ?,
			ordinal = ?, weight_kg = ?, reps = ?, duration_sec = ?, effort = ?,
			completed_at = ?, sync_status = ?
		WHERE local_id = ?`,
		e.RemoteID, e.ActivityID, e.ReferenceItemID, e.Ordinal, e.WeightKg,
		e.Reps, e.DurationSec, e.Effort, e.CompletedAt.UTC().Format(timeLayout),
		string(e.SyncStatus), e.LocalID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, localID, remoteID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activity_entries SET remote_id = ?, sync_status = 'synced' WHERE local_id = ?`,
		remoteID, localID)
	if err != nil {
		return fmt.Errorf("failed to mark entry synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, localID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activity_entries WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByActivity(ctx context.Context, activityLocalID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activity_entries WHERE activity_id = ?`, activityLocalID); err != nil {
		return fmt.Errorf("failed to delete entries by activity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activity_entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

const selectCols = `SELECT local_id, remote_id, activity_id, reference_item_id, ordinal, weight_kg, reps, duration_sec, effort, completed_at, sync_status FROM activity_entries`

func (r *SQLiteRepository) queryEntries(ctx context.Context, query string, args ...any) ([]models.ActivityEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.ActivityEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanEntry(scan func(dest ...any) error) (*models.ActivityEntry, error) {
	e := &models.ActivityEntry{}
	var completed, status string
	if err := scan(&e.LocalID, &e.RemoteID, &e.ActivityID, &e.ReferenceItemID,
		&e.Ordinal, &e.WeightKg, &e.Reps, &e.DurationSec, &e.Effort,
		&completed, &status); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, completed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse completed_at: %w", err)
	}
	e.CompletedAt = t
	e.SyncStatus = models.SyncStatus(status)
	return e, nil
}

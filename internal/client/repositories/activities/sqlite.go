package activities

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Activity) (int64, error) {
	locked, completed, err := encodeActivity(a)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (remote_id, plan_id, day_index, started_at, completed_at, note, locked_items, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RemoteID, a.PlanID, a.DayIndex, a.StartedAt.UTC().Format(timeLayout),
		completed, a.Note, locked, string(a.SyncStatus))
	if err != nil {
		return 0, fmt.Errorf("failed to insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get activity insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetByLocalID(ctx context.Context, localID int64) (*models.Activity, error) {
	row := r.db.QueryRowContext(ctx, selectCols+` WHERE local_id = ?`, localID)
	return scanActivity(row.Scan)
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, remoteID int64) (*models.Activity, error) {
	row := r.db.QueryRowContext(ctx, selectCols+` WHERE remote_id = ?`, remoteID)
	a, err := scanActivity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *SQLiteRepository) GetRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	return r.queryActivities(ctx, selectCols+` ORDER BY started_at DESC LIMIT ?`, limit)
}

func (r *SQLiteRepository) GetDirty(ctx context.Context) ([]models.Activity, error) {
	return r.queryActivities(ctx, selectCols+` WHERE sync_status IN ('created', 'updated') ORDER BY local_id`)
}

func (r *SQLiteRepository) Update(ctx context.Context, a *models.Activity) error {
	locked, completed, err := encodeActivity(a)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE activities SET remote_id = ?, plan_id = ?, day_index = ?, started_at = ?,
			completed_at = ?, note = ?, locked_items = ?, sync_status = ?
		WHERE local_id = ?`,
		a.RemoteID, a.PlanID, a.DayIndex, a.StartedAt.UTC().Format(timeLayout),
		completed, a.Note, locked, string(a.SyncStatus), a.LocalID)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
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
		`UPDATE activities SET remote_id = ?, sync_status = 'synced' WHERE local_id = ?`,
		remoteID, localID)
	if err != nil {
		return fmt.Errorf("failed to mark activity synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, localID int64, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activities SET sync_status = ? WHERE local_id = ?`, string(status), localID)
	if err != nil {
		return fmt.Errorf("failed to set activity status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReassignPlan(ctx context.Context, oldPlanID, newPlanID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activities SET plan_id = ? WHERE plan_id = ?`, newPlanID, oldPlanID)
	if err != nil {
		return fmt.Errorf("failed to reassign plan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, localID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities`); err != nil {
		return fmt.Errorf("failed to clear activities: %w", err)
	}
	return nil
}

const selectCols = `SELECT local_id, remote_id, plan_id, day_index, started_at, completed_at, note, locked_items, sync_status FROM activities`

func (r *SQLiteRepository) queryActivities(ctx context.Context, query string, args ...any) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select activities: %w", err)
	}
	defer rows.Close()

	var result []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func encodeActivity(a *models.Activity) (locked string, completed any, err error) {
	items := a.LockedItems
	if items == nil {
		items = []int64{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode locked items: %w", err)
	}
	if a.CompletedAt != nil {
		completed = a.CompletedAt.UTC().Format(timeLayout)
	}
	return string(b), completed, nil
}

func scanActivity(scan func(dest ...any) error) (*models.Activity, error) {
	a := &models.Activity{}
	var started, locked, status string
	var completed sql.NullString
	if err := scan(&a.LocalID, &a.RemoteID, &a.PlanID, &a.DayIndex, &started,
		&completed, &a.Note, &locked, &status); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	a.StartedAt = t
	if completed.Valid {
		ct, err := time.Parse(timeLayout, completed.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		a.CompletedAt = &ct
	}
	if err := json.Unmarshal([]byte(locked), &a.LockedItems); err != nil {
		return nil, fmt.Errorf("failed to decode locked items: %w", err)
	}
	a.SyncStatus = models.SyncStatus(status)
	return a, nil
}

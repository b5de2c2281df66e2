package plans

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *SQLiteRepository) Insert(ctx context.Context, p *models.Plan) (int64, error) {
	days, archived, err := encodePlan(p)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO plans (name, description, days, is_favorite, archived_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, days, p.Favorite, archived, string(p.SyncStatus))
	if err != nil {
		return 0, fmt.Errorf("failed to insert plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get plan insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, p *models.Plan) error {
	days, archived, err := encodePlan(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plans (id, name, description, days, is_favorite, archived_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			description = excluded.description,
			days = excluded.days,
			is_favorite = excluded.is_favorite,
			archived_at = excluded.archived_at,
			sync_status = excluded.sync_status`,
		p.ID, p.Name, p.Description, days, p.Favorite, archived, string(p.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to put plan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	row := r.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id)
	return scanPlan(row.Scan)
}

func (r *SQLiteRepository) GetAll(ctx context.Context, includeArchived bool) ([]models.Plan, error) {
	query := selectCols
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY id`
	return r.queryPlans(ctx, query)
}

func (r *SQLiteRepository) GetDirty(ctx context.Context) ([]models.Plan, error) {
	return r.queryPlans(ctx, selectCols+` WHERE sync_status != 'synced' ORDER BY id`)
}

func (r *SQLiteRepository) Update(ctx context.Context, p *models.Plan) error {
	days, archived, err := encodePlan(p)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE plans SET name = ?, description = ?, days = ?, is_favorite = ?,
			archived_at = ?, sync_status = ?
		WHERE id = ?`,
		p.Name, p.Description, days, p.Favorite, archived, string(p.SyncStatus), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
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

func (r *SQLiteRepository) SetStatus(ctx context.Context, id int64, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE plans SET sync_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set plan status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSyncedRows(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE sync_status NOT IN ('created', 'updated')`)
	if err != nil {
		return fmt.Errorf("failed to delete synced plans: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) PurgeArchivedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM plans WHERE archived_at IS NOT NULL AND archived_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to select archived plans: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plans`); err != nil {
		return fmt.Errorf("failed to clear plans: %w", err)
	}
	return nil
}

const selectCols = `SELECT id, name, description, days, is_favorite, archived_at, sync_status FROM plans`

func (r *SQLiteRepository) queryPlans(ctx context.Context, query string, args ...any) ([]models.Plan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select plans: %w", err)
	}
	defer rows.Close()

	var result []models.Plan
	for rows.Next() {
		p, err := scanPlan(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func encodePlan(p *models.Plan) (days string, archived any, err error) {
	b, err := json.Marshal(p.Days)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode plan days: %w", err)
	}
	if p.ArchivedAt != nil {
		archived = p.ArchivedAt.UTC().Format(timeLayout)
	}
	return string(b), archived, nil
}

func scanPlan(scan func(dest ...any) error) (*models.Plan, error) {
	p := &models.Plan{}
	var days, status string
	var archived sql.NullString
	if err := scan(&p.ID, &p.Name, &p.Description, &days, &p.Favorite, &archived, &status); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(days), &p.Days); err != nil {
		return nil, fmt.Errorf("failed to decode plan days: %w", err)
	}
	if archived.Valid {
		t, err := time.Parse(timeLayout, archived.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse archived_at: %w", err)
		}
		p.ArchivedAt = &t
	}
	p.SyncStatus = models.SyncStatus(status)
	return p, nil
}

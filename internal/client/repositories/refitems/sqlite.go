package refitems

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, item *models.ReferenceItem) error {
	query := `INSERT INTO reference_items
			(id, name, description, muscle, muscle_group, equipment, kind, is_bodyweight, default_weight_kg, source, custom)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				description = excluded.description,
				muscle = excluded.muscle,
				muscle_group = excluded.muscle_group,
				equipment = excluded.equipment,
				kind = excluded.kind,
				is_bodyweight = excluded.is_bodyweight,
				default_weight_kg = excluded.default_weight_kg,
				source = excluded.source,
				custom = excluded.custom
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.Muscle, item.MuscleGroup,
		item.Equipment, item.Kind, item.Bodyweight, item.DefaultWeightKg,
		item.Source, item.Custom)
	if err != nil {
		return fmt.Errorf("failed to upsert reference item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertAll(ctx context.Context, items []models.ReferenceItem) error {
	for i := range items {
		if err := r.Upsert(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.ReferenceItem, error) {
	query := `SELECT id, name, description, muscle, muscle_group, equipment, kind,
			is_bodyweight, default_weight_kg, source, custom
			FROM reference_items WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	item, err := scanItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get reference item: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.ReferenceItem, error) {
	query := `SELECT id, name, description, muscle, muscle_group, equipment, kind,
			is_bodyweight, default_weight_kg, source, custom
			FROM reference_items ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select reference items: %w", err)
	}
	defer rows.Close()

	var result []models.ReferenceItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reference_items`); err != nil {
		return fmt.Errorf("failed to clear reference items: %w", err)
	}
	return nil
}

func scanItem(scan func(dest ...any) error) (*models.ReferenceItem, error) {
	item := &models.ReferenceItem{}
	err := scan(&item.ID, &item.Name, &item.Description, &item.Muscle,
		&item.MuscleGroup, &item.Equipment, &item.Kind, &item.Bodyweight,
		&item.DefaultWeightKg, &item.Source, &item.Custom)
	if err != nil {
		return nil, err
	}
	return item, nil
}

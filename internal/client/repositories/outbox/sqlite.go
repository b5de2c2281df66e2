package outbox

import (
	"context"
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

func (r *SQLiteRepository) Add(ctx context.Context, ev *models.OutboxEvent) (int64, error) {
	payload := ev.Payload
	if payload == nil {
		payload = []byte("{}")
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox_events (event_type, payload, client_timestamp, processed)
		VALUES (?, ?, ?, ?)`,
		ev.EventType, string(payload), ev.ClientTimestamp.UTC().Format(timeLayout), ev.Processed)
	if err != nil {
		return 0, fmt.Errorf("failed to add outbox event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get outbox insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetUnprocessed(ctx context.Context) ([]models.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, payload, client_timestamp, processed
		FROM outbox_events WHERE processed = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select outbox events: %w", err)
	}
	defer rows.Close()

	var result []models.OutboxEvent
	for rows.Next() {
		var ev models.OutboxEvent
		var payload, ts string
		if err := rows.Scan(&ev.ID, &ev.EventType, &payload, &ts, &ev.Processed); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client_timestamp: %w", err)
		}
		ev.Payload = []byte(payload)
		ev.ClientTimestamp = t
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM outbox_events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete outbox event: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM outbox_events`); err != nil {
		return fmt.Errorf("failed to clear outbox events: %w", err)
	}
	return nil
}

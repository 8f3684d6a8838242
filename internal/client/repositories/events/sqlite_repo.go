package events

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, ev models.SecurityEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_events (id, type, device, location, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, string(ev.Type), ev.Device, ev.Location, ev.Timestamp.UTC().Format(time.RFC3339Nano), string(ev.Status))
	if err != nil {
		return fmt.Errorf("failed to append security event %s: %w", ev.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Trim(ctx context.Context, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM security_events
		WHERE seq NOT IN (SELECT seq FROM security_events ORDER BY seq DESC LIMIT ?)
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to trim security events: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]models.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, device, location, created_at, status
		FROM security_events
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	defer rows.Close()

	result := make([]models.SecurityEvent, 0, limit)
	for rows.Next() {
		var (
			ev                   models.SecurityEvent
			evType, status, when string
		)
		if err := rows.Scan(&ev.ID, &evType, &ev.Device, &ev.Location, &when, &status); err != nil {
			return nil, fmt.Errorf("failed to scan security event row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, when)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp on security event %s: %w", ev.ID, err)
		}
		ev.Type = models.SecurityEventType(evType)
		ev.Status = models.SecurityEventStatus(status)
		ev.Timestamp = ts
		result = append(result, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate security event rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM security_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}
	return n, nil
}

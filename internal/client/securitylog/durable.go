package securitylog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/repositories/events"
	"github.com/dmitrijs2005/incidentauth/internal/dbx"
)

// Durable persists events in the security_events table. Append and trim run
// in one transaction so the table never holds more than Capacity rows.
type Durable struct {
	db *sql.DB
}

func NewDurable(db *sql.DB) *Durable {
	return &Durable{db: db}
}

func (d *Durable) LogEvent(ctx context.Context, ev models.SecurityEvent) error {
	err := dbx.WithTx(ctx, d.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := events.NewSQLiteRepository(tx)
		if err := repo.Append(ctx, ev); err != nil {
			return err
		}
		return repo.Trim(ctx, Capacity)
	})
	if err != nil {
		return fmt.Errorf("log security event: %w", err)
	}
	return nil
}

func (d *Durable) Events(ctx context.Context, limit int) ([]models.SecurityEvent, error) {
	return events.NewSQLiteRepository(d.db).Recent(ctx, normalizeLimit(limit))
}

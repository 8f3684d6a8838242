// Package events persists the local security-event log in SQLite.
package events

import (
	"context"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
)

// Repository stores security events in insertion order.
type Repository interface {
	// Append adds ev after every existing event.
	Append(ctx context.Context, ev models.SecurityEvent) error
	// Trim keeps the newest keep events and deletes the rest.
	Trim(ctx context.Context, keep int) error
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, limit int) ([]models.SecurityEvent, error)
	Count(ctx context.Context) (int, error)
}

// Package securitylog is the client's local audit trail: an append-only list
// of security events capped at Capacity entries, oldest evicted first, read
// back newest first.
//
// Two implementations are provided: Ring keeps events in memory for the
// lifetime of the process, Durable keeps them in the local SQLite database.
// The log is per device, not per user.
package securitylog

import (
	"context"
	"time"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/common"
	"github.com/google/uuid"
)

const (
	// Capacity is the number of retained events.
	Capacity = 100
	// DefaultLimit is used when a caller asks for a non-positive number of events.
	DefaultLimit = 10
)

type Logger interface {
	LogEvent(ctx context.Context, ev models.SecurityEvent) error
	// Events returns at most limit events, newest first.
	Events(ctx context.Context, limit int) ([]models.SecurityEvent, error)
}

// NewEvent stamps a fresh event with a random ID. Missing device metadata is
// recorded as common.UnknownDevice.
func NewEvent(typ models.SecurityEventType, status models.SecurityEventStatus, device *models.DeviceInfo, now time.Time) models.SecurityEvent {
	ev := models.SecurityEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Device:    common.UnknownDevice,
		Location:  common.UnknownDevice,
		Timestamp: now.UTC(),
		Status:    status,
	}
	if device != nil {
		if device.Browser != "" {
			ev.Device = device.Browser
		}
		if device.Location != "" {
			ev.Location = device.Location
		}
	}
	return ev
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > Capacity {
		return Capacity
	}
	return limit
}

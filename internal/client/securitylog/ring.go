package securitylog

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/incidentauth/internal/client/models"
)

// Ring is a fixed-capacity ring buffer of events.
type Ring struct {
	mu    sync.Mutex
	buf   []models.SecurityEvent
	start int // index of the oldest event
	size  int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Ring{buf: make([]models.SecurityEvent, capacity)}
}

// LogEvent appends ev, overwriting the oldest event when full.
func (r *Ring) LogEvent(_ context.Context, ev models.SecurityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = ev
		r.size++
		return nil
	}
	r.buf[r.start] = ev
	r.start = (r.start + 1) % len(r.buf)
	return nil
}

func (r *Ring) Events(_ context.Context, limit int) ([]models.SecurityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(normalizeLimit(limit), r.size)
	out := make([]models.SecurityEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(r.start+r.size-1-i)%len(r.buf)])
	}
	return out, nil
}

// Len reports how many events are retained.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

package attempts

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/google/uuid"
)

// DefaultLogCapacity is how many recent attempts LogRepository keeps for
// ListByLicense.
const DefaultLogCapacity = 1024

// LogRepository writes each attempt as a structured log line and keeps a
// bounded ring of recent attempts in memory. It backs the journal for
// stores that have no table to put it in.
type LogRepository struct {
	log logging.Logger

	mu   sync.Mutex
	ring []*models.Attempt
	next int
	full bool
}

func NewLogRepository(log logging.Logger, capacity int) *LogRepository {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogRepository{
		log:  log.With("module", "attempts"),
		ring: make([]*models.Attempt, capacity),
	}
}

func (r *LogRepository) Record(ctx context.Context, a *models.Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	r.log.Info(ctx, "authentication attempt",
		"id", a.ID,
		"license_key", a.LicenseKey,
		"hwid", a.HWID,
		"client_version", a.ClientVersion,
		"client_type", a.ClientType,
		"remote_addr", a.RemoteAddr,
		"outcome", a.Outcome,
		"created_at", a.CreatedAt,
	)

	c := *a
	r.mu.Lock()
	r.ring[r.next] = &c
	r.next = (r.next + 1) % len(r.ring)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
	return nil
}

func (r *LogRepository) ListByLicense(ctx context.Context, key string, limit int) ([]*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.ring)
	}

	var result []*models.Attempt
	for i := 0; i < n && (limit <= 0 || len(result) < limit); i++ {
		idx := (r.next - 1 - i + len(r.ring)) % len(r.ring)
		a := r.ring[idx]
		if a.LicenseKey == key {
			c := *a
			result = append(result, &c)
		}
	}
	return result, nil
}

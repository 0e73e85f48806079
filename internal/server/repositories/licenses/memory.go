package licenses

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/models"
)

type memoryEntry struct {
	mu      sync.Mutex
	license *models.License
}

// MemoryRepository keeps licenses in process memory. Each key has its own
// mutex, so writers on different keys never wait for each other.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]*memoryEntry)}
}

func (r *MemoryRepository) entry(key string) (*memoryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	return e, ok
}

func (r *MemoryRepository) Create(ctx context.Context, l *models.License) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[l.LicenseKey]; ok {
		return common.ErrorAlreadyExists
	}
	r.entries[l.LicenseKey] = &memoryEntry{license: l.Clone()}
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, key string) (*models.License, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, ok := r.entry(key)
	if !ok {
		return nil, common.ErrorNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.license.Clone(), nil
}

func (r *MemoryRepository) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := r.entry(key)
	return ok, nil
}

func (r *MemoryRepository) Touch(ctx context.Context, key, hwid string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e, ok := r.entry(key)
	if !ok {
		return ErrConflict
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.license
	if !l.IsActive || (l.IsBound() && *l.BoundHWID != hwid) {
		return ErrConflict
	}

	if !l.IsBound() {
		bound := hwid
		l.BoundHWID = &bound
	}
	if l.FirstUsedAt == nil {
		first := now
		l.FirstUsedAt = &first
	}
	if l.LastUsedAt == nil || l.LastUsedAt.Before(now) {
		last := now
		l.LastUsedAt = &last
	}
	return nil
}

func (r *MemoryRepository) Revoke(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e, ok := r.entry(key)
	if !ok {
		return common.ErrorNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.license.IsActive = false
	return nil
}

func (r *MemoryRepository) Unbind(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e, ok := r.entry(key)
	if !ok {
		return "", common.ErrorNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var previous string
	if e.license.BoundHWID != nil {
		previous = *e.license.BoundHWID
	}
	e.license.BoundHWID = nil
	return previous, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/config"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/repomanager"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-ok"

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, credential string) error {
	if credential != adminToken {
		return common.ErrorUnauthorized
	}
	return nil
}

type recordingJournal struct {
	mu       sync.Mutex
	attempts []*models.Attempt
	err      error
}

func (j *recordingJournal) Record(_ context.Context, a *models.Attempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = append(j.attempts, a)
	return j.err
}

func (j *recordingJournal) ListByLicense(context.Context, string, int) ([]*models.Attempt, error) {
	return nil, nil
}

func (j *recordingJournal) outcomes() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.attempts))
	for _, a := range j.attempts {
		out = append(out, a.Outcome)
	}
	return out
}

type recordingObserver struct {
	mu        sync.Mutex
	auth      map[string]int
	admin     map[string]int
	conflicts int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{auth: map[string]int{}, admin: map[string]int{}}
}

func (o *recordingObserver) ObserveAuthentication(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.auth[outcome]++
}

func (o *recordingObserver) ObserveAdminOperation(op, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.admin[op+"/"+outcome]++
}

func (o *recordingObserver) ObserveBindConflict() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts++
}

type fixture struct {
	svc      *LicenseService
	repo     licenses.Repository
	journal  *recordingJournal
	observer *recordingObserver
}

func newFixture(t *testing.T, repo licenses.Repository) *fixture {
	t.Helper()
	cfg := &config.Config{StoreTimeout: 2 * time.Second}
	f := &fixture{repo: repo, journal: &recordingJournal{}, observer: newRecordingObserver()}
	f.svc = NewLicenseService(repo, f.journal, staticVerifier{}, cfg, nil, f.observer)
	f.svc.now = func() time.Time { return now }
	return f
}

type store struct {
	name string
	new  func(t *testing.T) licenses.Repository
}

func stores() []store {
	return []store{
		{"memory", func(t *testing.T) licenses.Repository { return licenses.NewMemoryRepository() }},
		{"sqlite", func(t *testing.T) licenses.Repository { return newSQLiteRepo(t) }},
	}
}

func newSQLiteRepo(t *testing.T) licenses.Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_time_format=sqlite", filepath.Join(t.TempDir(), "keybind.db"))
	db, err := sql.Open(repomanager.DialectSQLite.DriverName(), dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetLogger(goose.NopLogger())
	m, err := repomanager.NewSQLRepositoryManager(repomanager.DialectSQLite)
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(context.Background(), db))
	return m.Licenses(db)
}

// seed inserts a license directly into the store.
func seed(t *testing.T, repo licenses.Repository, key string, expiresAt time.Time, mutate ...func(*models.License)) {
	t.Helper()
	l := &models.License{
		LicenseKey: key,
		UserName:   "Test User",
		UserEmail:  "test@example.com",
		CreatedAt:  now.Add(-24 * time.Hour),
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}
	require.NoError(t, repo.Create(context.Background(), l))
	for _, m := range mutate {
		m(l)
	}
	if l.BoundHWID != nil {
		require.NoError(t, repo.Touch(context.Background(), key, *l.BoundHWID, now.Add(-time.Hour)))
	}
	if !l.IsActive {
		require.NoError(t, repo.Revoke(context.Background(), key))
	}
}

func boundTo(hwid string) func(*models.License) {
	return func(l *models.License) { l.BoundHWID = &hwid }
}

func revoked(l *models.License) { l.IsActive = false }

func mustGet(t *testing.T, repo licenses.Repository, key string) *models.License {
	t.Helper()
	l, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	return l
}

// scriptedRepo lets tests override single operations of a memory store.
type scriptedRepo struct {
	*licenses.MemoryRepository
	get   func(ctx context.Context, key string) (*models.License, error)
	touch func(ctx context.Context, key, hwid string, at time.Time) error
}

func (r *scriptedRepo) Get(ctx context.Context, key string) (*models.License, error) {
	if r.get != nil {
		return r.get(ctx, key)
	}
	return r.MemoryRepository.Get(ctx, key)
}

func (r *scriptedRepo) Touch(ctx context.Context, key, hwid string, at time.Time) error {
	if r.touch != nil {
		return r.touch(ctx, key, hwid, at)
	}
	return r.MemoryRepository.Touch(ctx, key, hwid, at)
}

// delayedTouchRepo blocks the Touch stamped with hold until release is
// closed, signalling on held once it is waiting.
type delayedTouchRepo struct {
	licenses.Repository
	hold    time.Time
	held    chan struct{}
	release chan struct{}
}

func (r *delayedTouchRepo) Touch(ctx context.Context, key, hwid string, at time.Time) error {
	if at.Equal(r.hold) {
		close(r.held)
		<-r.release
	}
	return r.Repository.Touch(ctx, key, hwid, at)
}

var errBackend = errors.New("dial tcp 10.0.0.5:5432: connection refused")

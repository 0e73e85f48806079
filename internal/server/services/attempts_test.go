package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/dmitrijs2005/keybind/internal/server/config"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournaledService(t *testing.T, journal attempts.Repository) (*LicenseService, licenses.Repository) {
	t.Helper()
	repo := licenses.NewMemoryRepository()
	svc := NewLicenseService(repo, journal, staticVerifier{}, &config.Config{StoreTimeout: time.Second}, nil, nil)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestListAttempts_NewestFirst(t *testing.T) {
	svc, repo := newJournaledService(t, attempts.NewLogRepository(logging.Nop{}, 16))
	seed(t, repo, "KEY", now.Add(time.Hour))
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, AuthRequest{LicenseKey: "KEY", HWID: "HW1", ClientVersion: "1.0"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, AuthRequest{LicenseKey: "KEY", HWID: "HW2"})
	require.ErrorIs(t, err, common.ErrDeviceMismatch)
	_, err = svc.Authenticate(ctx, AuthRequest{LicenseKey: "OTHER", HWID: "HW1"})
	require.ErrorIs(t, err, common.ErrInvalidKey)

	list, err := svc.ListAttempts(ctx, "KEY", adminToken, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "HW2", list[0].HWID)
	assert.Equal(t, string(ReasonDeviceMismatch), list[0].Outcome)
	assert.Equal(t, "HW1", list[1].HWID)
	assert.Equal(t, models.AttemptOutcomeOK, list[1].Outcome)
	assert.Equal(t, "1.0", list[1].ClientVersion)

	list, err = svc.ListAttempts(ctx, "KEY", adminToken, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "HW2", list[0].HWID)

	list, err = svc.ListAttempts(ctx, "OTHER", adminToken, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, string(ReasonInvalidKey), list[0].Outcome)
}

func TestListAttempts_Rejections(t *testing.T) {
	svc, _ := newJournaledService(t, attempts.NewLogRepository(logging.Nop{}, 16))
	ctx := context.Background()

	_, err := svc.ListAttempts(ctx, "KEY", "wrong", 0)
	assert.Equal(t, ReasonUnauthorized, ReasonFor(err))

	_, err = svc.ListAttempts(ctx, "  ", adminToken, 0)
	assert.Equal(t, ReasonInvalidRequest, ReasonFor(err))
}

type limitJournal struct {
	recordingJournal
	limit   int
	listErr error
}

func (j *limitJournal) ListByLicense(_ context.Context, _ string, limit int) ([]*models.Attempt, error) {
	j.limit = limit
	return nil, j.listErr
}

func TestListAttempts_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultAttemptsLimit},
		{"negative", -5, DefaultAttemptsLimit},
		{"within", 7, 7},
		{"capped", 10_000, MaxAttemptsLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &limitJournal{}
			svc, _ := newJournaledService(t, j)

			list, err := svc.ListAttempts(context.Background(), "KEY", adminToken, tt.limit)
			require.NoError(t, err)
			assert.NotNil(t, list)
			assert.Empty(t, list)
			assert.Equal(t, tt.want, j.limit)
		})
	}
}

func TestListAttempts_JournalFailure(t *testing.T) {
	svc, _ := newJournaledService(t, &limitJournal{listErr: errBackend})

	_, err := svc.ListAttempts(context.Background(), "KEY", adminToken, 0)
	assert.Equal(t, ReasonStorageFailure, ReasonFor(err))
}

func TestListAttempts_NoJournal(t *testing.T) {
	svc, _ := newJournaledService(t, nil)

	list, err := svc.ListAttempts(context.Background(), "KEY", adminToken, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

package licenses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepo fails every call with err while err is set.
type flakyRepo struct {
	*MemoryRepository
	err   error
	calls int
}

func (f *flakyRepo) Get(ctx context.Context, key string) (*models.License, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryRepository.Get(ctx, key)
}

func newFlaky() *flakyRepo {
	return &flakyRepo{MemoryRepository: NewMemoryRepository()}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := newFlaky()
	inner.err = errors.New("connection refused")

	var transitions []gobreaker.State
	settings := DefaultBreakerSettings()
	settings.ConsecutiveFailures = 3
	settings.OnStateChange = func(_ string, _, to gobreaker.State) { transitions = append(transitions, to) }
	repo := NewBreakerRepository(inner, "test", settings)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Get(ctx, "KEY1")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, repo.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	_, err := repo.Get(ctx, "KEY1")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "license store unavailable")
	assert.Equal(t, 3, inner.calls, "open breaker must not reach the store")
}

func TestBreaker_DomainOutcomesDoNotTrip(t *testing.T) {
	inner := newFlaky()
	settings := DefaultBreakerSettings()
	settings.ConsecutiveFailures = 2
	repo := NewBreakerRepository(inner, "test", settings)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleLicense("KEY1")))
	require.NoError(t, repo.Touch(ctx, "KEY1", "HW-A", t0))

	for i := 0; i < 5; i++ {
		_, err := repo.Get(ctx, "MISSING")
		require.ErrorIs(t, err, common.ErrorNotFound)
		require.ErrorIs(t, repo.Touch(ctx, "KEY1", "HW-B", t0), ErrConflict)
		require.ErrorIs(t, repo.Create(ctx, sampleLicense("KEY1")), common.ErrorAlreadyExists)
	}

	inner.err = context.Canceled
	for i := 0; i < 5; i++ {
		_, err := repo.Get(ctx, "KEY1")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, repo.State())
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	inner := newFlaky()
	require.NoError(t, inner.Create(context.Background(), sampleLicense("KEY1")))
	inner.err = errors.New("timeout")

	settings := DefaultBreakerSettings()
	settings.ConsecutiveFailures = 1
	settings.OpenTimeout = 10 * time.Millisecond
	repo := NewBreakerRepository(inner, "test", settings)
	ctx := context.Background()

	_, err := repo.Get(ctx, "KEY1")
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, repo.State())

	inner.err = nil
	require.Eventually(t, func() bool {
		return repo.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	got, err := repo.Get(ctx, "KEY1")
	require.NoError(t, err)
	assert.Equal(t, "KEY1", got.LicenseKey)
	assert.Equal(t, gobreaker.StateClosed, repo.State())
}

func TestBreaker_Check(t *testing.T) {
	inner := newFlaky()
	settings := DefaultBreakerSettings()
	settings.ConsecutiveFailures = 1
	settings.OpenTimeout = time.Hour
	repo := NewBreakerRepository(inner, "test", settings)
	ctx := context.Background()

	require.NoError(t, repo.Check(ctx))

	inner.err = errors.New("connection refused")
	_, err := repo.Get(ctx, "KEY1")
	require.Error(t, err)

	require.ErrorIs(t, repo.Check(ctx), ErrBreakerOpen)
}

func TestBreaker_PassesValuesThrough(t *testing.T) {
	repo := NewBreakerRepository(NewMemoryRepository(), "test", DefaultBreakerSettings())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleLicense("KEY1")))
	require.NoError(t, repo.Touch(ctx, "KEY1", "HW-A", t0))

	ok, err := repo.Exists(ctx, "KEY1")
	require.NoError(t, err)
	assert.True(t, ok)

	prev, err := repo.Unbind(ctx, "KEY1")
	require.NoError(t, err)
	assert.Equal(t, "HW-A", prev)
	require.NoError(t, repo.Revoke(ctx, "KEY1"))
}

package licenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the circuit breaker around a store.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	Interval            time.Duration
	OnStateChange       func(name string, from, to gobreaker.State)
}

// DefaultBreakerSettings trips after five consecutive backend failures and
// probes again after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		Interval:            time.Minute,
	}
}

// BreakerRepository fails fast while the wrapped store keeps erroring.
// Domain outcomes (not found, duplicate key, CAS conflict) and caller
// cancellations don't count as failures.
type BreakerRepository struct {
	next Repository
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerRepository(next Repository, name string, s BreakerSettings) *BreakerRepository {
	settings := gobreaker.Settings{
		Name:        "license-store-" + name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful:  isBreakerSuccess,
		OnStateChange: s.OnStateChange,
	}
	return &BreakerRepository{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// ErrBreakerOpen is reported by Check while the breaker rejects calls.
var ErrBreakerOpen = errors.New("license store circuit breaker is open")

// State exposes the breaker state for health reporting.
func (b *BreakerRepository) State() gobreaker.State {
	return b.cb.State()
}

// Check reports store health: it fails while the breaker is open. A half-open
// breaker is probing the store and counts as healthy.
func (b *BreakerRepository) Check(context.Context) error {
	if b.State() == gobreaker.StateOpen {
		return ErrBreakerOpen
	}
	return nil
}

func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorAlreadyExists) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, context.Canceled)
}

func execute[T any](b *BreakerRepository, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("license store unavailable: %w", err)
		}
		return zero, err
	}
	return v.(T), nil
}

func (b *BreakerRepository) Create(ctx context.Context, l *models.License) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.next.Create(ctx, l)
	})
	return err
}

func (b *BreakerRepository) Get(ctx context.Context, key string) (*models.License, error) {
	return execute(b, func() (*models.License, error) {
		return b.next.Get(ctx, key)
	})
}

func (b *BreakerRepository) Exists(ctx context.Context, key string) (bool, error) {
	return execute(b, func() (bool, error) {
		return b.next.Exists(ctx, key)
	})
}

func (b *BreakerRepository) Touch(ctx context.Context, key, hwid string, now time.Time) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.next.Touch(ctx, key, hwid, now)
	})
	return err
}

func (b *BreakerRepository) Revoke(ctx context.Context, key string) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.next.Revoke(ctx, key)
	})
	return err
}

func (b *BreakerRepository) Unbind(ctx context.Context, key string) (string, error) {
	return execute(b, func() (string, error) {
		return b.next.Unbind(ctx, key)
	})
}

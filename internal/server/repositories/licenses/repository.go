// Package licenses declares the license store contract and its backends:
// SQL (PostgreSQL or SQLite), Redis, an S3 JSON document and process memory.
package licenses

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/keybind/internal/server/models"
)

// ErrConflict is returned by Touch when the compare-and-swap guard did not
// hold: the license is revoked or bound to a different device.
var ErrConflict = errors.New("license binding conflict")

// Repository is the durable mapping from license key to license record.
//
// Implementations must make Touch atomic per key: two concurrent calls with
// different hwids on an unbound license must result in exactly one binding.
type Repository interface {
	// Create inserts a new record. A taken key yields common.ErrorAlreadyExists.
	Create(ctx context.Context, license *models.License) error

	// Get returns the record for key or common.ErrorNotFound.
	Get(ctx context.Context, key string) (*models.License, error)

	// Exists reports whether a record for key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Touch records a successful use by hwid at now. If the license is unbound
	// it is bound to hwid and first_used_at is set; last_used_at is always set.
	// The write happens only if the license is active and unbound or already
	// bound to hwid, otherwise ErrConflict is returned and nothing changes.
	Touch(ctx context.Context, key, hwid string, now time.Time) error

	// Revoke sets is_active=false. Revoking twice is not an error.
	Revoke(ctx context.Context, key string) error

	// Unbind clears the device binding and returns the previous hwid
	// ("" when the license was not bound).
	Unbind(ctx context.Context, key string) (string, error)
}

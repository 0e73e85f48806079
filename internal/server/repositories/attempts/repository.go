// Package attempts journals authentication calls.
package attempts

import (
	"context"

	"github.com/dmitrijs2005/keybind/internal/server/models"
)

// Repository appends authentication attempts. It is write-mostly; the
// journal never feeds back into authentication decisions.
type Repository interface {
	Record(ctx context.Context, a *models.Attempt) error
	ListByLicense(ctx context.Context, key string, limit int) ([]*models.Attempt, error)
}

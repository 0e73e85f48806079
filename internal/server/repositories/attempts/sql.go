package attempts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/keybind/internal/dbx"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/google/uuid"
)

// SQLRepository writes attempts to the auth_attempts table.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Record inserts a; an empty ID is filled with a random UUID.
func (r *SQLRepository) Record(ctx context.Context, a *models.Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query := `
		INSERT INTO auth_attempts (id, license_key, hwid, client_version, client_type, remote_addr, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.LicenseKey, a.HWID, a.ClientVersion, a.ClientType, a.RemoteAddr, a.Outcome, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByLicense returns the newest attempts for key first.
func (r *SQLRepository) ListByLicense(ctx context.Context, key string, limit int) ([]*models.Attempt, error) {
	query := `
		SELECT id, license_key, hwid, client_version, client_type, remote_addr, outcome, created_at
		FROM auth_attempts
		WHERE license_key = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Attempt
	for rows.Next() {
		var a models.Attempt
		if err := rows.Scan(&a.ID, &a.LicenseKey, &a.HWID, &a.ClientVersion, &a.ClientType,
			&a.RemoteAddr, &a.Outcome, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

package licenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/dbx"
	"github.com/dmitrijs2005/keybind/internal/server/models"
)

// maxUnbindRounds bounds the read-then-clear loop in Unbind.
const maxUnbindRounds = 3

// SQLRepository stores licenses in the "licenses" table over a dbx.DBTX.
// The statements use $n placeholders and run unchanged on PostgreSQL (pgx)
// and SQLite (modernc).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts a license row.
func (r *SQLRepository) Create(ctx context.Context, l *models.License) error {
	query := `
		INSERT INTO licenses (license_key, user_name, user_email, created_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, l.LicenseKey, l.UserName, l.UserEmail, l.CreatedAt, l.ExpiresAt, l.IsActive)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get loads one license row.
func (r *SQLRepository) Get(ctx context.Context, key string) (*models.License, error) {
	query := `
		SELECT license_key, user_name, user_email, created_at, expires_at, is_active,
		       bound_hwid, first_used_at, last_used_at
		FROM licenses
		WHERE license_key = $1
	`
	var (
		l         models.License
		hwid      sql.NullString
		firstUsed sql.NullTime
		lastUsed  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&l.LicenseKey, &l.UserName, &l.UserEmail, &l.CreatedAt, &l.ExpiresAt, &l.IsActive,
		&hwid, &firstUsed, &lastUsed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if hwid.Valid {
		l.BoundHWID = &hwid.String
	}
	if firstUsed.Valid {
		l.FirstUsedAt = &firstUsed.Time
	}
	if lastUsed.Valid {
		l.LastUsedAt = &lastUsed.Time
	}
	return &l, nil
}

// Exists checks for a row without loading it.
func (r *SQLRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT COUNT(*) FROM licenses WHERE license_key = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// Touch is a single conditional UPDATE; the WHERE clause is the CAS guard.
// last_used_at only moves forward, so a call that read the clock earlier but
// commits later cannot leave it behind first_used_at.
func (r *SQLRepository) Touch(ctx context.Context, key, hwid string, now time.Time) error {
	query := `
		UPDATE licenses
		SET bound_hwid = COALESCE(bound_hwid, $2),
		    first_used_at = COALESCE(first_used_at, $3),
		    last_used_at = CASE
		        WHEN last_used_at IS NULL OR last_used_at < $3 THEN $3
		        ELSE last_used_at
		    END
		WHERE license_key = $1
		  AND is_active
		  AND (bound_hwid IS NULL OR bound_hwid = $2)
	`
	// UTC keeps SQLite's text timestamps comparable.
	res, err := r.db.ExecContext(ctx, query, key, hwid, now.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res, ErrConflict)
}

// Revoke flips is_active to false.
func (r *SQLRepository) Revoke(ctx context.Context, key string) error {
	query := `UPDATE licenses SET is_active = $2 WHERE license_key = $1`
	res, err := r.db.ExecContext(ctx, query, key, false)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}

// Unbind reads the current binding and clears it with a conditional UPDATE
// that only matches while the binding is unchanged. A concurrent bind between
// the two statements makes the UPDATE miss, and the pair is retried, so the
// returned hwid is always the one that was cleared. On a *sql.DB the rounds
// run in a transaction; inside an outer transaction they simply join it.
func (r *SQLRepository) Unbind(ctx context.Context, key string) (string, error) {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return unbind(ctx, r.db, key)
	}

	var previous string
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		previous, err = unbind(ctx, tx, key)
		return err
	})
	return previous, err
}

func unbind(ctx context.Context, db dbx.DBTX, key string) (string, error) {
	for round := 0; round < maxUnbindRounds; round++ {
		var hwid sql.NullString
		err := db.QueryRowContext(ctx, `SELECT bound_hwid FROM licenses WHERE license_key = $1`, key).Scan(&hwid)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", common.ErrorNotFound
			}
			return "", fmt.Errorf("db error: %w", err)
		}

		res, err := db.ExecContext(ctx,
			`UPDATE licenses SET bound_hwid = NULL WHERE license_key = $1 AND COALESCE(bound_hwid, '') = $2`,
			key, hwid.String)
		if err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}
		err = expectOneRow(res, ErrConflict)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return "", err
		}
		return hwid.String, nil
	}
	return "", fmt.Errorf("unbind %s: %w", key, ErrConflict)
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return none
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Package repomanager provides a concrete RepositoryManager for the SQL
// backends, wiring together repository constructors and database migrations
// (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/keybind/internal/dbx"
	"github.com/dmitrijs2005/keybind/internal/server/migrations"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

// SQLRepositoryManager vends SQL-backed repository implementations
// and exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect Dialect
}

// Licenses returns a licenses.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Licenses(db dbx.DBTX) licenses.Repository {
	return licenses.NewSQLRepository(db)
}

// Attempts returns an attempts.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Attempts(db dbx.DBTX) attempts.Repository {
	return attempts.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations of the manager's
// dialect and runs them against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	var (
		fsys         fs.FS
		gooseDialect string
	)
	switch m.dialect {
	case DialectPostgres:
		fsys, gooseDialect = migrations.Postgres, "pgx"
	case DialectSQLite:
		fsys, gooseDialect = migrations.SQLite, "sqlite3"
	default:
		return fmt.Errorf("unsupported dialect %q", m.dialect)
	}

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, string(m.dialect)); err != nil {
		return err
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(dialect Dialect) (RepositoryManager, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
		return &SQLRepositoryManager{dialect: dialect}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

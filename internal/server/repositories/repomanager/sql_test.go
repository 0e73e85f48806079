package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/keybind/internal/dbx"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewSQLRepositoryManager_ReturnsInterface(t *testing.T) {
	for _, d := range []Dialect{DialectPostgres, DialectSQLite} {
		m, err := NewSQLRepositoryManager(d)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", d, err)
		}
		var _ RepositoryManager = m
	}

	if _, err := NewSQLRepositoryManager("mysql"); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}

func TestDriverName(t *testing.T) {
	if got := DialectPostgres.DriverName(); got != "pgx" {
		t.Fatalf("postgres driver = %q", got)
	}
	if got := DialectSQLite.DriverName(); got != "sqlite" {
		t.Fatalf("sqlite driver = %q", got)
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &SQLRepositoryManager{dialect: DialectPostgres}

	if l := m.Licenses(db); l == nil {
		t.Fatal("Licenses() nil")
	}
	if a := m.Attempts(db); a == nil {
		t.Fatal("Attempts() nil")
	}

	var _ licenses.Repository = m.Licenses(db)
	var _ attempts.Repository = m.Attempts(db)
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	for _, d := range []Dialect{DialectPostgres, DialectSQLite} {
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			if dir != string(d) {
				return fmt.Errorf("unexpected dir %q", dir)
			}
			if len(opts) != 0 {
				return errors.New("unexpected opts")
			}
			return nil
		}

		m := &SQLRepositoryManager{dialect: d}
		if err := m.RunMigrations(context.Background(), db); err != nil {
			t.Fatalf("RunMigrations(%s) error: %v", d, err)
		}
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{dialect: DialectPostgres}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_SQLiteEndToEnd(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?_time_format=sqlite", filepath.Join(t.TempDir(), "keybind.db"))
	db, err := sql.Open(DialectSQLite.DriverName(), dsn)
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()
	goose.SetLogger(goose.NopLogger())

	m, _ := NewSQLRepositoryManager(DialectSQLite)
	ctx := context.Background()
	if err := m.RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations should be idempotent, got %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := m.Licenses(tx).Create(ctx, &models.License{
			LicenseKey: "KEY1", UserName: "Alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour), IsActive: true,
		}); err != nil {
			return err
		}
		return m.Attempts(tx).Record(ctx, &models.Attempt{LicenseKey: "KEY1", HWID: "HW", Outcome: "OK", CreatedAt: now})
	})
	if err != nil {
		t.Fatalf("transaction error: %v", err)
	}

	got, err := m.Licenses(db).Get(ctx, "KEY1")
	if err != nil || got.UserName != "Alice" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/keybind/internal/dbx"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Licenses(db dbx.DBTX) licenses.Repository
	Attempts(db dbx.DBTX) attempts.Repository
}

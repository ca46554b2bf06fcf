// Package repomanager vends the SQL repositories of the relational backend
// bound to a DBTX, and applies the embedded goose migrations for the
// configured dialect.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/migrations"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/repositories/movies"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/repositories/reviews"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Movies(db dbx.DBTX) movies.Repository
	Reviews(db dbx.DBTX) reviews.Repository
}

// SQLRepositoryManager vends the SQL repositories for one dialect.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

// Movies returns a movies.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Movies(db dbx.DBTX) movies.Repository {
	return movies.NewSQLRepository(db, m.dialect)
}

// Reviews returns a reviews.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Reviews(db dbx.DBTX) reviews.Repository {
	return reviews.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the migrations of the manager's dialect. Migration
// files live in a directory named after the dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, string(m.dialect)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

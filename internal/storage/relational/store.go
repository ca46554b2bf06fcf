// Package relational implements the storage contract on a normalized SQL
// schema (SQLite through modernc.org/sqlite, PostgreSQL through pgx).
//
// Every public operation runs as one transaction. Validation completes
// before the first statement that writes, and any failure rolls the whole
// transaction back. Writers are serialized by an in-process lock so that
// restore can swap the database file with no connection in use.
package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/cryptox"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/filex"
	"github.com/dmitrijs2005/movieweb/internal/snapshot"
	"github.com/dmitrijs2005/movieweb/internal/storage"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/repomanager"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

var (
	_ storage.Storage  = (*Store)(nil)
	_ storage.Restorer = (*Store)(nil)
)

type Store struct {
	mu sync.RWMutex
	db *sql.DB

	dialect  dbx.Dialect
	dsn      string
	repos    repomanager.RepositoryManager
	hasher   cryptox.Hasher
	snapshot snapshot.Source
	now      func() time.Time
}

type Option func(*Store)

// WithHasher replaces the password hasher.
func WithHasher(h cryptox.Hasher) Option {
	return func(s *Store) { s.hasher = h }
}

// WithSnapshot sets the source used by RestoreDefault.
func WithSnapshot(src snapshot.Source) Option {
	return func(s *Store) { s.snapshot = src }
}

// WithClock sets the clock used for year validation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open connects to dsn and applies migrations. For SQLite dsn is a file
// path, whose directory is created if needed.
func Open(ctx context.Context, dialect dbx.Dialect, dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty database dsn", common.ErrInvalidInput)
	}

	s := &Store{
		dialect: dialect,
		dsn:     dsn,
		repos:   repomanager.NewSQLRepositoryManager(dialect),
		hasher:  cryptox.DefaultHasher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if path, ok := sqliteFilePath(dialect, dsn); ok {
		if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, common.StorageFailure("create database directory", err)
		}
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *Store) openDB(ctx context.Context) (*sql.DB, error) {
	return s.openAt(ctx, s.dsn)
}

// openAt opens dsn with the store's dialect and brings its schema up to
// date.
func (s *Store) openAt(ctx context.Context, dsn string) (*sql.DB, error) {
	connStr := dsn
	if s.dialect == dbx.SQLite {
		connStr = sqliteConnString(dsn)
	}

	db, err := sql.Open(s.dialect.DriverName(), connStr)
	if err != nil {
		return nil, common.StorageFailure("open database", err)
	}
	if s.dialect == dbx.SQLite {
		// one connection keeps ":memory:" databases intact and makes
		// SQLite's single writer explicit
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.StorageFailure("ping database", err)
	}

	if err := s.repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, common.StorageFailure("run migrations", err)
	}
	return db, nil
}

func sqliteConnString(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// sqliteFilePath extracts the database file of a SQLite dsn. In-memory
// databases have none.
func sqliteFilePath(dialect dbx.Dialect, dsn string) (string, bool) {
	if dialect != dbx.SQLite {
		return "", false
	}
	path, query, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return "", false
	}
	return path, true
}

// Dialect reports the SQL dialect of the store.
func (s *Store) Dialect() dbx.Dialect {
	return s.dialect
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return common.StorageFailure("close database", err)
	}
	return nil
}

// write runs fn in a transaction under the exclusive lock.
func (s *Store) write(ctx context.Context, op string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(ctx, op, fn)
}

// read runs fn in a transaction under the shared lock.
func (s *Store) read(ctx context.Context, op string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inTx(ctx, op, fn)
}

func (s *Store) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return common.StorageFailure(op, errors.New("store is closed"))
	}
	err := dbx.WithTx(ctx, s.db, nil, fn)
	if err == nil || common.IsDomain(err) {
		return err
	}
	return common.StorageFailure(op, err)
}

func userNotFound(id int64) error {
	return fmt.Errorf("%w: user %d", common.ErrNotFound, id)
}

func movieNotFound(id string) error {
	return fmt.Errorf("%w: movie %s", common.ErrNotFound, id)
}

// requireUser maps a missing row to a contextual NotFound.
func (s *Store) requireUser(ctx context.Context, tx dbx.DBTX, id int64) error {
	_, err := s.repos.Users(tx).GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return userNotFound(id)
	}
	return err
}

// Package app is the composition root: it builds the configured storage
// backend once, wires the catalog client and owns teardown.
package app

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/movieweb/internal/catalog"
	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/config"
	"github.com/dmitrijs2005/movieweb/internal/cryptox"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/logging"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/snapshot"
	"github.com/dmitrijs2005/movieweb/internal/storage"
	"github.com/dmitrijs2005/movieweb/internal/storage/flatfile"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   storage.Storage
	catalog catalog.Lookup
	hasher  cryptox.Hasher
}

type Option func(*App)

// WithCatalog replaces the OMDb client built from the configuration.
func WithCatalog(c catalog.Lookup) Option {
	return func(a *App) { a.catalog = c }
}

func WithHasher(h cryptox.Hasher) Option {
	return func(a *App) { a.hasher = h }
}

// newS3Client is swapped in tests.
var newS3Client = func(ctx context.Context, c snapshot.S3Config) (snapshot.GetObjectAPI, error) {
	return snapshot.NewS3Client(ctx, c)
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...Option) (*App, error) {
	app := &App{config: cfg, logger: logger, hasher: cryptox.DefaultHasher}
	for _, o := range opts {
		o(app)
	}

	if app.catalog == nil {
		app.catalog = catalog.New(cfg.OMDbURL, cfg.OMDbAPIKey, cfg.OMDbTimeout)
	}

	store, err := app.openStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	app.store = store

	logger.Info(ctx, "storage ready", "backend", cfg.Backend)
	return app, nil
}

func (app *App) openStorage(ctx context.Context) (storage.Storage, error) {
	switch storage.Backend(app.config.Backend) {
	case storage.BackendJSON:
		return flatfile.Open(app.config.DataDir, app.config.JSONStoreName, flatfile.WithHasher(app.hasher))

	case storage.BackendSQLite, storage.BackendPostgres:
		dialect, err := dbx.ParseDialect(app.config.Backend)
		if err != nil {
			return nil, err
		}
		opts := []relational.Option{relational.WithHasher(app.hasher)}
		if dialect == dbx.SQLite {
			src, err := app.snapshotSource(ctx)
			if err != nil {
				return nil, err
			}
			opts = append(opts, relational.WithSnapshot(src))
		}
		return relational.Open(ctx, dialect, app.config.DatabaseDSN, opts...)

	default:
		return nil, fmt.Errorf("%w: unknown backend %q", common.ErrInvalidInput, app.config.Backend)
	}
}

func (app *App) snapshotSource(ctx context.Context) (snapshot.Source, error) {
	if !app.config.SnapshotFromS3() {
		return snapshot.NewFileSource(app.config.DefaultSnapshotPath), nil
	}

	client, err := newS3Client(ctx, snapshot.S3Config{
		Region:       app.config.S3Region,
		BaseEndpoint: app.config.S3BaseEndpoint,
		AccessKey:    app.config.S3RootUser,
		SecretKey:    app.config.S3RootPassword,
	})
	if err != nil {
		return nil, err
	}
	return snapshot.NewS3Source(client, app.config.SnapshotS3Bucket, app.config.SnapshotS3Key), nil
}

func (app *App) Storage() storage.Storage {
	return app.store
}

func (app *App) Logger() logging.Logger {
	return app.logger
}

// RestoreDefault replaces the store content with the default snapshot when
// the backend supports it.
func (app *App) RestoreDefault(ctx context.Context) error {
	r, ok := app.store.(storage.Restorer)
	if !ok {
		return fmt.Errorf("%w: backend %q cannot restore a default snapshot", common.ErrUnsupported, app.config.Backend)
	}

	app.logger.Info(ctx, "restoring default snapshot", "backend", app.config.Backend)
	if err := r.RestoreDefault(ctx); err != nil {
		app.logger.Error(ctx, "restore failed", "error", err)
		return err
	}
	app.logger.Info(ctx, "default snapshot restored")
	return nil
}

// AddMovieByTitle looks the title up in the catalog and adds the result to
// the user's list. It returns the movie as stored, which for an already
// known id is the existing record.
func (app *App) AddMovieByTitle(ctx context.Context, userID int64, title string) (*models.Movie, error) {
	m, err := app.catalog.GetMovieByTitle(ctx, title)
	if err != nil {
		return nil, err
	}

	if err := app.store.AddMovieToUser(ctx, userID, *m); err != nil {
		return nil, err
	}
	app.logger.Debug(ctx, "movie added", "user_id", userID, "movie_id", m.ID)

	return app.store.GetUserMovie(ctx, userID, m.ID)
}

func (app *App) Close() error {
	if app.store == nil {
		return nil
	}
	if err := app.store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}

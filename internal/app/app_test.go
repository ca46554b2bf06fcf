package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/movieweb/internal/catalog"
	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/config"
	"github.com/dmitrijs2005/movieweb/internal/cryptox"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/logging"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/snapshot"
	"github.com/dmitrijs2005/movieweb/internal/storage/flatfile"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational"
	"github.com/dmitrijs2005/movieweb/internal/storage/storagetest"
)

type fakeCatalog struct {
	movies map[string]models.Movie
	calls  int
}

func (f *fakeCatalog) GetMovieByTitle(ctx context.Context, title string) (*models.Movie, error) {
	f.calls++
	m, ok := f.movies[title]
	if !ok {
		return nil, catalog.ErrMovieNotFound
	}
	return &m, nil
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Backend = backend
	cfg.DataDir = dir
	cfg.DatabaseDSN = filepath.Join(dir, "movies.sqlite")
	cfg.DefaultSnapshotPath = filepath.Join(dir, "movies_default.sqlite")
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{
		WithHasher(cryptox.Bcrypt{Cost: bcrypt.MinCost}),
		WithCatalog(&fakeCatalog{movies: map[string]models.Movie{"Titanic": storagetest.Titanic}}),
	}, opts...)

	a, err := NewApp(context.Background(), cfg, logging.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNewApp_SelectsBackend(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		a := newTestApp(t, testConfig(t, "json"))
		assert.IsType(t, &flatfile.Store{}, a.Storage())
		assert.FileExists(t, filepath.Join(a.config.DataDir, "app_data.json"))
	})

	t.Run("sqlite", func(t *testing.T) {
		a := newTestApp(t, testConfig(t, "sqlite"))
		assert.IsType(t, &relational.Store{}, a.Storage())
		assert.FileExists(t, a.config.DatabaseDSN)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewApp(context.Background(), testConfig(t, "mongo"), logging.NewNop())
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestAddMovieByTitle(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			fc := &fakeCatalog{movies: map[string]models.Movie{"Titanic": storagetest.Titanic}}
			a := newTestApp(t, testConfig(t, backend), WithCatalog(fc))

			u, err := a.Storage().AddUser(ctx, models.NewUser{Name: "alice"})
			require.NoError(t, err)

			m, err := a.AddMovieByTitle(ctx, u.ID, "Titanic")
			require.NoError(t, err)
			assert.Equal(t, storagetest.Titanic, *m)

			_, err = a.AddMovieByTitle(ctx, u.ID, "Nope")
			assert.ErrorIs(t, err, catalog.ErrMovieNotFound)

			_, err = a.AddMovieByTitle(ctx, u.ID+100, "Titanic")
			assert.ErrorIs(t, err, common.ErrNotFound)

			movies, err := a.Storage().GetUserMovies(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, movies, 1)
			assert.Equal(t, 3, fc.calls)
		})
	}
}

func TestRestoreDefault_FromFile(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "sqlite")

	// build the default snapshot with a single user
	seed, err := relational.Open(ctx, dbx.SQLite, cfg.DefaultSnapshotPath, relational.WithHasher(cryptox.Bcrypt{Cost: bcrypt.MinCost}))
	require.NoError(t, err)
	_, err = seed.AddUser(ctx, models.NewUser{Name: "seeded"})
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	a := newTestApp(t, cfg)
	_, err = a.Storage().AddUser(ctx, models.NewUser{Name: "temporary"})
	require.NoError(t, err)

	require.NoError(t, a.RestoreDefault(ctx))

	users, err := a.Storage().ListPublicUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "seeded", users[0].Name)
}

func TestRestoreDefault_Unsupported(t *testing.T) {
	a := newTestApp(t, testConfig(t, "json"))
	assert.ErrorIs(t, a.RestoreDefault(context.Background()), common.ErrUnsupported)
}

func TestRestoreDefault_MissingSnapshot(t *testing.T) {
	a := newTestApp(t, testConfig(t, "sqlite"))
	assert.ErrorIs(t, a.RestoreDefault(context.Background()), common.ErrNotFound)
}

type stubGetObject struct{ err error }

func (s stubGetObject) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, s.err
}

func TestSnapshotSource_S3(t *testing.T) {
	orig := newS3Client
	t.Cleanup(func() { newS3Client = orig })

	var got snapshot.S3Config
	newS3Client = func(ctx context.Context, c snapshot.S3Config) (snapshot.GetObjectAPI, error) {
		got = c
		return stubGetObject{err: errors.New("offline")}, nil
	}

	cfg := testConfig(t, "sqlite")
	cfg.SnapshotS3Bucket = "snapshots"
	cfg.SnapshotS3Key = "movies_default.sqlite"
	cfg.S3RootUser = "minio"
	cfg.S3RootPassword = "minio123"

	a := newTestApp(t, cfg)
	assert.Equal(t, snapshot.S3Config{
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000/",
		AccessKey:    "minio",
		SecretKey:    "minio123",
	}, got)

	err := a.RestoreDefault(context.Background())
	assert.ErrorContains(t, err, "offline")
}

func TestSnapshotSource_S3ClientError(t *testing.T) {
	orig := newS3Client
	t.Cleanup(func() { newS3Client = orig })
	newS3Client = func(ctx context.Context, c snapshot.S3Config) (snapshot.GetObjectAPI, error) {
		return nil, errors.New("bad credentials")
	}

	cfg := testConfig(t, "sqlite")
	cfg.SnapshotS3Bucket = "b"
	cfg.SnapshotS3Key = "k"

	_, err := NewApp(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "bad credentials")
}

func TestClose_Idempotent(t *testing.T) {
	a := newTestApp(t, testConfig(t, "sqlite"))
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Nil(t, (&App{}).Close())
}

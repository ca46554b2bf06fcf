package movies

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/dbtest"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/repositories/users"
)

var titanic = models.Movie{
	ID:        "tt0120338",
	Name:      "Titanic",
	Director:  "James Cameron",
	Year:      "1997",
	Rating:    "7.9",
	ImdbLink:  "https://www.imdb.com/title/tt0120338/",
	ImageLink: "https://m.media-amazon.com/images/titanic.jpg",
}

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db, dbx.Postgres), mock
}

func TestUpdate_PostgresPlaceholders(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+movies\s+SET\s+director\s*=\s*\$1,\s*year\s*=\s*\$2,\s*rating\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$4$`).
		WithArgs("J. Cameron", "1997", "8.0", "tt0120338").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "tt0120338", models.MovieUpdate{Director: "J. Cameron", Year: "1997", Rating: "8.0"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+movies`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), titanic)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestListByUser_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+user_movies\s+um\s+JOIN\s+movies`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("db err"))

	_, err := repo.ListByUser(context.Background(), 1)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestCountOwners_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+user_movies\s+WHERE\s+movie_id\s*=\s*\$1`).
		WithArgs("tt1").
		WillReturnError(errors.New("db err"))

	_, err := repo.CountOwners(context.Background(), "tt1")
	assert.Error(t, err)
}

func seedUser(t *testing.T, repo *users.SQLRepository, name string) int64 {
	t.Helper()
	u, err := repo.Create(context.Background(), &models.User{Name: name})
	require.NoError(t, err)
	return u.ID
}

func TestSQLite_CreateIsIdempotent(t *testing.T) {
	repo := NewSQLRepository(dbtest.OpenSQLite(t), dbx.SQLite)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, titanic))

	changed := titanic
	changed.Director = "someone else"
	require.NoError(t, repo.Create(ctx, changed))

	got, err := repo.Get(ctx, titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, titanic, *got)

	_, err = repo.Get(ctx, "tt404")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_Ownership(t *testing.T) {
	db := dbtest.OpenSQLite(t)
	repo := NewSQLRepository(db, dbx.SQLite)
	userRepo := users.NewSQLRepository(db, dbx.SQLite)
	ctx := context.Background()

	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")

	avatar := models.Movie{ID: "tt0499549", Name: "Avatar", Year: "2009", Rating: "7.9"}
	require.NoError(t, repo.Create(ctx, titanic))
	require.NoError(t, repo.Create(ctx, avatar))

	require.NoError(t, repo.Associate(ctx, alice, avatar.ID))
	require.NoError(t, repo.Associate(ctx, alice, titanic.ID))
	require.NoError(t, repo.Associate(ctx, alice, titanic.ID))
	require.NoError(t, repo.Associate(ctx, bob, titanic.ID))

	list, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, avatar.ID, list[0].ID)
	assert.Equal(t, titanic.ID, list[1].ID)

	n, err := repo.CountOwners(ctx, titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := repo.IsAssociated(ctx, bob, avatar.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Dissociate(ctx, bob, titanic.ID))
	assert.ErrorIs(t, repo.Dissociate(ctx, bob, titanic.ID), common.ErrNotFound)

	require.NoError(t, repo.DissociateUser(ctx, alice))
	list, err = repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLite_UpdateAndDelete(t *testing.T) {
	repo := NewSQLRepository(dbtest.OpenSQLite(t), dbx.SQLite)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, titanic))
	require.NoError(t, repo.Update(ctx, titanic.ID, models.MovieUpdate{Name: "ignored", Director: "JC", Year: "1990–1995", Rating: "8.0"}))

	got, err := repo.Get(ctx, titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, "Titanic", got.Name)
	assert.Equal(t, "JC", got.Director)
	assert.Equal(t, "1990–1995", got.Year)
	assert.Equal(t, "8.0", got.Rating)

	assert.ErrorIs(t, repo.Update(ctx, "tt404", models.MovieUpdate{}), common.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, titanic.ID))
	assert.ErrorIs(t, repo.Delete(ctx, titanic.ID), common.ErrNotFound)
}

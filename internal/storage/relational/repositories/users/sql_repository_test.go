package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/storage/relational/dbtest"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db, dbx.Postgres), mock
}

func TestCreate_PostgresPlaceholders(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*password,\s*avatar\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id$`
	mock.ExpectQuery(q).
		WithArgs("alice", sql.NullString{}, sql.NullString{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	got, err := repo.Create(context.Background(), &models.User{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "alice"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.NotErrorIs(t, err, dbx.ErrDuplicate)
}

func TestGetByName_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+id,\s*name,\s*password,\s*avatar\s+FROM\s+users\s+WHERE\s+name\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByName(context.Background(), "alice")
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestListPublic_ScanError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+id,\s*name\s+FROM\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("not-a-number", "bob"))

	_, err := repo.ListPublic(context.Background())
	assert.Error(t, err)
}

func TestDelete_RowsAffectedError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

	err := repo.Delete(context.Background(), 1)
	assert.Regexp(t, `db error: .*no count`, err.Error())
}

func TestSQLite_CreateAndGet(t *testing.T) {
	repo := NewSQLRepository(dbtest.OpenSQLite(t), dbx.SQLite)
	ctx := context.Background()

	pub, err := repo.Create(ctx, &models.User{Name: "bob"})
	require.NoError(t, err)
	reg, err := repo.Create(ctx, &models.User{Name: "alice", Password: "$2a$hash", Avatar: "a.png"})
	require.NoError(t, err)
	assert.Greater(t, reg.ID, pub.ID)

	got, err := repo.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: reg.ID, Name: "alice", Password: "$2a$hash", Avatar: "a.png"}, got)

	got, err = repo.GetByName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)
	assert.Empty(t, got.Password)

	_, err = repo.GetByName(ctx, "Bob")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_DuplicateName(t *testing.T) {
	repo := NewSQLRepository(dbtest.OpenSQLite(t), dbx.SQLite)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{Name: "bob"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{Name: "bob"})
	assert.ErrorIs(t, err, dbx.ErrDuplicate)
}

func TestSQLite_ListPublicAndDelete(t *testing.T) {
	repo := NewSQLRepository(dbtest.OpenSQLite(t), dbx.SQLite)
	ctx := context.Background()

	list, err := repo.ListPublic(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	a, err := repo.Create(ctx, &models.User{Name: "a"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.User{Name: "reg", Password: "$2a$hash"})
	require.NoError(t, err)
	c, err := repo.Create(ctx, &models.User{Name: "c"})
	require.NoError(t, err)

	list, err = repo.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{{ID: a.ID, Name: "a"}, {ID: c.ID, Name: "c"}}, list)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), common.ErrNotFound)

	// ids are not reissued after deleting the newest user
	require.NoError(t, repo.Delete(ctx, c.ID))
	d, err := repo.Create(ctx, &models.User{Name: "d"})
	require.NoError(t, err)
	assert.Greater(t, d.ID, c.ID)
}

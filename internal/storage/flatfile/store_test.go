package flatfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/cryptox"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/storage"
	"github.com/dmitrijs2005/movieweb/internal/storage/storagetest"
)

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir, "app_data", WithHasher(cryptox.Bcrypt{Cost: bcrypt.MinCost}))
	require.NoError(t, err)
	return s
}

func TestContract_FlatFile(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return openStore(t, t.TempDir())
	})
}

func TestOpen_InitializesEmptyCollection(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := openStore(t, dir)

	assert.Equal(t, filepath.Join(dir, "app_data.json"), s.Path())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestOpen_KeepsExistingStore(t *testing.T) {
	dir := t.TempDir()
	existing := `[{"id": 3, "name": "legacy", "movies": [
		{"id": "tt0120338", "name": "Titanic", "director": "James Cameron", "year": "1997",
		 "rating": "7.9", "imdb_link": "https://www.imdb.com/title/tt0120338/", "image_link": "poster.jpg"}
	]}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app_data.json"), []byte(existing), 0o600))

	s := openStore(t, dir)
	ctx := context.Background()

	u, err := s.GetUserByName(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, "7.9", u.Movies[0].Rating)

	next, err := s.AddUser(ctx, models.NewUser{Name: "next"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.ID)
}

func TestOpen_EmptyName(t *testing.T) {
	_, err := Open(t.TempDir(), "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestPersistedLayout(t *testing.T) {
	s := openStore(t, t.TempDir())
	ctx := context.Background()

	pub, err := s.AddUser(ctx, models.NewUser{Name: "bob"})
	require.NoError(t, err)
	_, err = s.AddUser(ctx, models.NewUser{Name: "alice", Password: "secret-password"})
	require.NoError(t, err)
	require.NoError(t, s.AddMovieToUser(ctx, pub.ID, storagetest.Titanic))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)

	assert.Equal(t, "bob", raw[0]["name"])
	assert.NotContains(t, raw[0], "password")
	assert.NotContains(t, raw[0], "avatar")
	movies := raw[0]["movies"].([]any)
	require.Len(t, movies, 1)
	movie := movies[0].(map[string]any)
	assert.Equal(t, "tt0120338", movie["id"])
	assert.Equal(t, "https://www.imdb.com/title/tt0120338/", movie["imdb_link"])

	assert.Equal(t, "alice", raw[1]["name"])
	assert.NotEqual(t, "secret-password", raw[1]["password"])
	assert.Equal(t, models.DefaultAvatar, raw[1]["avatar"])
}

func TestFailedMutationLeavesFileUntouched(t *testing.T) {
	s := openStore(t, t.TempDir())
	ctx := context.Background()

	u, err := s.AddUser(ctx, models.NewUser{Name: "bob"})
	require.NoError(t, err)
	require.NoError(t, s.AddMovieToUser(ctx, u.ID, storagetest.Titanic))

	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	_, err = s.UpdateMovieOfUser(ctx, u.ID, storagetest.Titanic.ID, models.MovieUpdate{Year: "1997", Rating: "11"})
	require.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = s.AddUser(ctx, models.NewUser{Name: "bob"})
	require.ErrorIs(t, err, common.ErrConflict)
	_, err = s.DeleteMovieOfUser(ctx, 99, storagetest.Titanic.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCorruptStore(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err := s.ListPublicUsers(context.Background())
	assert.ErrorIs(t, err, common.ErrStorageFailure)

	_, err = s.AddUser(context.Background(), models.NewUser{Name: "bob"})
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestMissingStoreFile(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, os.Remove(s.Path()))

	_, err := s.GetUserByID(context.Background(), 1)
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestUserIDsAreNeverReused(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	ctx := context.Background()

	a, err := s.AddUser(ctx, models.NewUser{Name: "a"})
	require.NoError(t, err)
	b, err := s.AddUser(ctx, models.NewUser{Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	// deleting the newest user must not free its id
	require.NoError(t, s.DeleteUser(ctx, b.ID))
	c, err := s.AddUser(ctx, models.NewUser{Name: "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)

	require.NoError(t, s.DeleteUser(ctx, a.ID))
	require.NoError(t, s.DeleteUser(ctx, c.ID))

	// a fresh Store on the same files continues the sequence
	reopened := openStore(t, dir)
	d, err := reopened.AddUser(ctx, models.NewUser{Name: "d"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.ID)
}

func TestReviewIDsAreNeverReused(t *testing.T) {
	s := openStore(t, t.TempDir())
	ctx := context.Background()

	u, err := s.AddUser(ctx, models.NewUser{Name: "bob"})
	require.NoError(t, err)
	require.NoError(t, s.AddMovieToUser(ctx, u.ID, storagetest.Titanic))

	require.NoError(t, s.UpdateUsersMovieReview(ctx, u.ID, storagetest.Titanic.ID, storagetest.LongReview("one")))
	require.NoError(t, s.DeleteReview(ctx, u.ID, storagetest.Titanic.ID))
	require.NoError(t, s.UpdateUsersMovieReview(ctx, u.ID, storagetest.Titanic.ID, storagetest.LongReview("two")))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var raw []struct {
		Reviews []struct {
			ID int64 `json:"id"`
		} `json:"reviews"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw[0].Reviews, 1)
	assert.Equal(t, int64(2), raw[0].Reviews[0].ID)
}

func TestSequenceFile(t *testing.T) {
	dir := t.TempDir()
	seq := filepath.Join(dir, ".app_data.seq.json")

	t.Run("ahead of the store", func(t *testing.T) {
		require.NoError(t, os.WriteFile(seq, []byte(`{"last_user_id": 41, "last_review_id": 7}`), 0o600))
		s := openStore(t, dir)

		u, err := s.AddUser(context.Background(), models.NewUser{Name: "bob"})
		require.NoError(t, err)
		assert.Equal(t, int64(42), u.ID)

		data, err := os.ReadFile(seq)
		require.NoError(t, err)
		assert.JSONEq(t, `{"last_user_id": 42, "last_review_id": 7}`, string(data))
	})

	t.Run("corrupt", func(t *testing.T) {
		require.NoError(t, os.WriteFile(seq, []byte(`{oops`), 0o600))
		s := openStore(t, dir)

		_, err := s.AddUser(context.Background(), models.NewUser{Name: "carol"})
		assert.ErrorIs(t, err, common.ErrStorageFailure)

		// reads do not touch the sequence
		_, err = s.ListPublicUsers(context.Background())
		assert.NoError(t, err)
	})
}

func TestCanceledContext(t *testing.T) {
	s := openStore(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddUser(ctx, models.NewUser{Name: "bob"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.AddUser(ctx, models.NewUser{Name: name})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"app_data.json", ".app_data.seq.json"}, names)
}

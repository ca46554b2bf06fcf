// Package storagetest is a behavioural test suite every storage.Storage
// implementation must pass.
package storagetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/storage"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) storage.Storage

var (
	Titanic = models.Movie{
		ID:        "tt0120338",
		Name:      "Titanic",
		Director:  "James Cameron",
		Year:      "1997",
		Rating:    "7.9",
		ImdbLink:  "https://www.imdb.com/title/tt0120338/",
		ImageLink: "https://m.media-amazon.com/images/M/titanic.jpg",
	}
	Alien = models.Movie{
		ID:        "tt0078748",
		Name:      "Alien",
		Director:  "Ridley Scott",
		Year:      "1979",
		Rating:    "8.5",
		ImdbLink:  "https://www.imdb.com/title/tt0078748/",
		ImageLink: "https://m.media-amazon.com/images/M/alien.jpg",
	}
)

// LongReview returns a review text long enough to be accepted.
func LongReview(tag string) string {
	return tag + ": " + strings.Repeat("a solid film worth watching. ", 3)
}

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"AddUserAssignsUniqueIDs", testAddUserAssignsUniqueIDs},
		{"AddUserRejectsInvalid", testAddUserRejectsInvalid},
		{"PasswordStoredHashed", testPasswordStoredHashed},
		{"ListPublicUsers", testListPublicUsers},
		{"IsPasswordValid", testIsPasswordValid},
		{"AddMovieIsIdempotent", testAddMovieIsIdempotent},
		{"SharedMovieUpdateVisibleToAllOwners", testSharedMovieUpdate},
		{"GetUserMovie", testGetUserMovie},
		{"UpdateMovieValidation", testUpdateMovieValidation},
		{"DeleteMovieOfUserPurgesOrphan", testDeleteMovieOfUserPurgesOrphan},
		{"DeleteMovieOfUserKeepsSharedMovie", testDeleteMovieOfUserKeepsShared},
		{"DeleteMovieOfUserErrors", testDeleteMovieOfUserErrors},
		{"DeleteUserCascades", testDeleteUserCascades},
		{"ReviewUpsert", testReviewUpsert},
		{"ReviewErrors", testReviewErrors},
		{"ConcurrentWriters", testConcurrentWriters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func addUser(t *testing.T, s storage.Storage, name, password string) *models.User {
	t.Helper()
	u, err := s.AddUser(context.Background(), models.NewUser{Name: name, Password: password})
	require.NoError(t, err)
	return u
}

func addMovie(t *testing.T, s storage.Storage, userID int64, m models.Movie) {
	t.Helper()
	require.NoError(t, s.AddMovieToUser(context.Background(), userID, m))
}

func movieIDs(movies []models.Movie) []string {
	ids := make([]string, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	return ids
}

func testAddUserAssignsUniqueIDs(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	seen := map[int64]bool{}

	for _, name := range []string{"alice", "bob", "carol", "Alice"} {
		u := addUser(t, s, name, "")
		assert.False(t, seen[u.ID], "id %d reused", u.ID)
		seen[u.ID] = true

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, name, got.Name)
		assert.Empty(t, got.Movies)

		byName, err := s.GetUserByName(ctx, name)
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, u.ID, byName.ID)
	}

	got, err := s.GetUserByID(ctx, 424242)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetUserByName(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testAddUserRejectsInvalid(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	addUser(t, s, "bob", "")

	cases := []struct {
		name string
		in   models.NewUser
		want error
	}{
		{"empty name", models.NewUser{Name: ""}, common.ErrInvalidInput},
		{"long name", models.NewUser{Name: strings.Repeat("x", 16)}, common.ErrInvalidInput},
		{"duplicate name", models.NewUser{Name: "bob"}, common.ErrConflict},
		{"duplicate registered", models.NewUser{Name: "bob", Password: "secret1"}, common.ErrConflict},
		{"short password", models.NewUser{Name: "dave", Password: "12345"}, common.ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AddUser(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	list, err := s.ListPublicUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := s.GetUserByName(ctx, "dave")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testPasswordStoredHashed(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	reg := addUser(t, s, "alice", "secret-password")
	got, err := s.GetUserByID(ctx, reg.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.Password)
	assert.NotEqual(t, "secret-password", got.Password)
	assert.NotContains(t, got.Password, "secret-password")
	assert.Equal(t, models.DefaultAvatar, got.Avatar)
	assert.False(t, got.IsPublic())

	withAvatar, err := s.AddUser(ctx, models.NewUser{Name: "carol", Password: "secret-password", Avatar: "carol.png"})
	require.NoError(t, err)
	got, err = s.GetUserByID(ctx, withAvatar.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol.png", got.Avatar)

	pub := addUser(t, s, "bob", "")
	got, err = s.GetUserByID(ctx, pub.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Password)
	assert.Empty(t, got.Avatar)
	assert.True(t, got.IsPublic())
}

func testListPublicUsers(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	list, err := s.ListPublicUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	a := addUser(t, s, "zed", "")
	addUser(t, s, "registered", "secret-password")
	b := addUser(t, s, "amy", "")

	list, err = s.ListPublicUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{{ID: a.ID, Name: "zed"}, {ID: b.ID, Name: "amy"}}, list)
}

func testIsPasswordValid(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	addUser(t, s, "alice", "secret-password")
	addUser(t, s, "bob", "")

	cases := []struct {
		user, password string
		want           bool
	}{
		{"alice", "secret-password", true},
		{"alice", "Secret-password", false},
		{"alice", "", false},
		{"bob", "", false},
		{"bob", "anything", false},
		{"nobody", "secret-password", false},
	}

	for _, tc := range cases {
		ok, err := s.IsPasswordValid(ctx, tc.user, tc.password)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "%s/%s", tc.user, tc.password)
	}
}

func testAddMovieIsIdempotent(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := addUser(t, s, "alice", "")

	addMovie(t, s, u.ID, Titanic)
	addMovie(t, s, u.ID, Titanic)
	addMovie(t, s, u.ID, Alien)

	list, err := s.GetUserMovies(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{Titanic.ID, Alien.ID}, movieIDs(list))
	assert.Equal(t, Titanic, list[0])

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, list, got.Movies)

	assert.ErrorIs(t, s.AddMovieToUser(ctx, 424242, Titanic), common.ErrNotFound)
	assert.ErrorIs(t, s.AddMovieToUser(ctx, u.ID, models.Movie{Name: "no id"}), common.ErrInvalidInput)

	_, err = s.GetUserMovies(ctx, 424242)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testSharedMovieUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := addUser(t, s, "alice", "")
	b := addUser(t, s, "bob", "")

	addMovie(t, s, a.ID, Titanic)

	// a second catalog fetch with drifted metadata still maps to the stored movie
	drifted := Titanic
	drifted.Rating = "8.0"
	addMovie(t, s, b.ID, drifted)

	upd := models.MovieUpdate{Name: Titanic.Name, Director: "J. Cameron", Year: "1997", Rating: "7.5"}
	updated, err := s.UpdateMovieOfUser(ctx, a.ID, Titanic.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "J. Cameron", updated.Director)

	for _, id := range []int64{a.ID, b.ID} {
		list, err := s.GetUserMovies(ctx, id)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "J. Cameron", list[0].Director)
		assert.Equal(t, "7.5", list[0].Rating)
		assert.Equal(t, Titanic.Name, list[0].Name)
	}

	global, err := s.GetMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.Equal(t, "J. Cameron", global.Director)

	missing, err := s.GetMovie(ctx, "tt404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testGetUserMovie(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := addUser(t, s, "alice", "")
	b := addUser(t, s, "bob", "")
	addMovie(t, s, a.ID, Titanic)

	got, err := s.GetUserMovie(ctx, a.ID, Titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, Titanic, *got)

	_, err = s.GetUserMovie(ctx, b.ID, Titanic.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.GetUserMovie(ctx, a.ID, "tt404")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.GetUserMovie(ctx, 424242, Titanic.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testUpdateMovieValidation(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := addUser(t, s, "alice", "")
	other := addUser(t, s, "bob", "")
	addMovie(t, s, u.ID, Titanic)

	base := models.MovieUpdate{Name: Titanic.Name, Director: "Someone", Year: "1997", Rating: "7.5"}

	rejected := []struct {
		name string
		mod  func(*models.MovieUpdate)
	}{
		{"rename", func(m *models.MovieUpdate) { m.Name = "Titanic II" }},
		{"rating 11", func(m *models.MovieUpdate) { m.Rating = "11" }},
		{"rating 7.55", func(m *models.MovieUpdate) { m.Rating = "7.55" }},
		{"year 1700", func(m *models.MovieUpdate) { m.Year = "1700" }},
		{"reversed range", func(m *models.MovieUpdate) { m.Year = "1995–1990" }},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			upd := base
			tc.mod(&upd)
			_, err := s.UpdateMovieOfUser(ctx, u.ID, Titanic.ID, upd)
			assert.ErrorIs(t, err, common.ErrInvalidInput)

			stored, err := s.GetUserMovie(ctx, u.ID, Titanic.ID)
			require.NoError(t, err)
			assert.Equal(t, Titanic, *stored)
		})
	}

	accepted := []struct {
		year, rating, wantRating string
	}{
		{"1995", "7.5", "7.5"},
		{"1990–1995", "7", "7.0"},
		{"1997", "10", "10.0"},
	}
	for _, tc := range accepted {
		upd := base
		upd.Year, upd.Rating = tc.year, tc.rating
		got, err := s.UpdateMovieOfUser(ctx, u.ID, Titanic.ID, upd)
		require.NoError(t, err, "%s/%s", tc.year, tc.rating)
		assert.Equal(t, tc.year, got.Year)
		assert.Equal(t, tc.wantRating, got.Rating)
		assert.Equal(t, Titanic.Name, got.Name)
	}

	// name may be omitted
	upd := base
	upd.Name = ""
	_, err := s.UpdateMovieOfUser(ctx, u.ID, Titanic.ID, upd)
	require.NoError(t, err)

	_, err = s.UpdateMovieOfUser(ctx, other.ID, Titanic.ID, base)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.UpdateMovieOfUser(ctx, u.ID, "tt404", base)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testDeleteMovieOfUserPurgesOrphan(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := addUser(t, s, "alice", "")
	addMovie(t, s, u.ID, Titanic)
	addMovie(t, s, u.ID, Alien)
	require.NoError(t, s.UpdateUsersMovieReview(ctx, u.ID, Titanic.ID, LongReview("alice")))

	removed, err := s.DeleteMovieOfUser(ctx, u.ID, Titanic.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, Titanic, *removed)

	gone, err := s.GetMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = s.GetAllReviewsForMovie(ctx, Titanic.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	text, err := s.GetUsersMovieReview(ctx, u.ID, Titanic.ID)
	require.NoError(t, err)
	assert.Empty(t, text)

	list, err := s.GetUserMovies(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{Alien.ID}, movieIDs(list))

	// re-adding recreates it from the supplied record
	addMovie(t, s, u.ID, Titanic)
	back, err := s.GetMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, Titanic, *back)
}

func testDeleteMovieOfUserKeepsShared(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := addUser(t, s, "alice", "")
	b := addUser(t, s, "bob", "")
	addMovie(t, s, a.ID, Titanic)
	addMovie(t, s, b.ID, Titanic)
	require.NoError(t, s.UpdateUsersMovieReview(ctx, a.ID, Titanic.ID, LongReview("alice")))
	require.NoError(t, s.UpdateUsersMovieReview(ctx, b.ID, Titanic.ID, LongReview("bob")))

	_, err := s.DeleteMovieOfUser(ctx, a.ID, Titanic.ID)
	require.NoError(t, err)

	still, err := s.GetMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	require.NotNil(t, still)

	reviews, err := s.GetAllReviewsForMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.MovieReview{{ReviewerName: "bob", Text: LongReview("bob")}}, reviews)

	list, err := s.GetUserMovies(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{Titanic.ID}, movieIDs(list))
}

func testDeleteMovieOfUserErrors(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := addUser(t, s, "alice", "")
	b := addUser(t, s, "bob", "")
	addMovie(t, s, a.ID, Titanic)

	_, err := s.DeleteMovieOfUser(ctx, b.ID, Titanic.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = s.DeleteMovieOfUser(ctx, a.ID, "tt404")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.DeleteMovieOfUser(ctx, 424242, Titanic.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testDeleteUserCascades(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := addUser(t, s, "alice", "")
	b := addUser(t, s, "bob", "")

	addMovie(t, s, a.ID, Titanic) // owned by alice only
	addMovie(t, s, a.ID, Alien)
	addMovie(t, s, b.ID, Alien)

	require.NoError(t, s.UpdateUsersMovieReview(ctx, a.ID, Titanic.ID, LongReview("alice")))
	require.NoError(t, s.UpdateUsersMovieReview(ctx, a.ID, Alien.ID, LongReview("alice")))
	require.NoError(t, s.UpdateUsersMovieReview(ctx, b.ID, Alien.ID, LongReview("bob")))

	require.NoError(t, s.DeleteUser(ctx, a.ID))

	got, err := s.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	orphan, err := s.GetMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan)

	shared, err := s.GetMovie(ctx, Alien.ID)
	require.NoError(t, err)
	require.NotNil(t, shared)

	reviews, err := s.GetAllReviewsForMovie(ctx, Alien.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.MovieReview{{ReviewerName: "bob", Text: LongReview("bob")}}, reviews)

	assert.ErrorIs(t, s.DeleteUser(ctx, a.ID), common.ErrNotFound)

	// the name is free again
	addUser(t, s, "alice", "")
}

func testReviewUpsert(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := addUser(t, s, "alice", "")
	addMovie(t, s, u.ID, Titanic)

	text, err := s.GetUsersMovieReview(ctx, u.ID, Titanic.ID)
	require.NoError(t, err)
	assert.Empty(t, text)

	assert.ErrorIs(t, s.UpdateUsersMovieReview(ctx, u.ID, Titanic.ID, strings.Repeat("x", 49)), common.ErrInvalidInput)

	require.NoError(t, s.UpdateUsersMovieReview(ctx, u.ID, Titanic.ID, LongReview("first")))
	require.NoError(t, s.UpdateUsersMovieReview(ctx, u.ID, Titanic.ID, LongReview("second")))

	text, err = s.GetUsersMovieReview(ctx, u.ID, Titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, LongReview("second"), text)

	reviews, err := s.GetAllReviewsForMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.MovieReview{{ReviewerName: "alice", Text: LongReview("second")}}, reviews)

	require.NoError(t, s.DeleteReview(ctx, u.ID, Titanic.ID))
	text, err = s.GetUsersMovieReview(ctx, u.ID, Titanic.ID)
	require.NoError(t, err)
	assert.Empty(t, text)

	reviews, err = s.GetAllReviewsForMovie(ctx, Titanic.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func testReviewErrors(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	u := addUser(t, s, "alice", "")
	addMovie(t, s, u.ID, Titanic)
	review := LongReview("alice")

	assert.ErrorIs(t, s.UpdateUsersMovieReview(ctx, 424242, Titanic.ID, review), common.ErrNotFound)
	assert.ErrorIs(t, s.UpdateUsersMovieReview(ctx, u.ID, "tt404", review), common.ErrNotFound)

	assert.ErrorIs(t, s.DeleteReview(ctx, u.ID, Titanic.ID), common.ErrNotFound)
	assert.ErrorIs(t, s.DeleteReview(ctx, 424242, Titanic.ID), common.ErrNotFound)
	assert.ErrorIs(t, s.DeleteReview(ctx, u.ID, "tt404"), common.ErrNotFound)

	bob := addUser(t, s, "bob", "")
	require.NoError(t, s.UpdateUsersMovieReview(ctx, u.ID, Titanic.ID, review))
	assert.ErrorIs(t, s.DeleteReview(ctx, bob.ID, Titanic.ID), common.ErrNotFound)
	got, err := s.GetUsersMovieReview(ctx, u.ID, Titanic.ID)
	require.NoError(t, err)
	assert.Equal(t, review, got)

	_, err = s.GetAllReviewsForMovie(ctx, "tt404")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func testConcurrentWriters(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	owner := addUser(t, s, "owner", "")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AddUser(ctx, models.NewUser{Name: fmt.Sprintf("user%d", i)}); err != nil {
				errs <- err
			}
			m := models.Movie{ID: fmt.Sprintf("tt%07d", i), Name: fmt.Sprintf("Movie %d", i)}
			if err := s.AddMovieToUser(ctx, owner.ID, m); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	list, err := s.ListPublicUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n+1)

	ids := map[int64]bool{}
	for _, u := range list {
		ids[u.ID] = true
	}
	assert.Len(t, ids, n+1)

	movies, err := s.GetUserMovies(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, movies, n)
}

// Package storage defines the capability contract implemented by every
// persistence backend. The web layer depends only on Storage; the concrete
// backend is chosen once at startup.
//
// Contract conventions:
//   - Lookups of a single record return (nil, nil) when it is absent.
//   - Mutations report typed failures from package common: ErrNotFound,
//     ErrConflict, ErrInvalidInput and ErrStorageFailure.
//   - All validation for a mutation completes before its first write, and a
//     mutation is durable once it returns without error.
package storage

import (
	"context"

	"github.com/dmitrijs2005/movieweb/internal/models"
)

// Backend names a storage strategy.
type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Storage is the capability contract shared by all backends.
type Storage interface {
	// ListPublicUsers returns users without credentials in insertion order.
	ListPublicUsers(ctx context.Context) ([]models.UserSummary, error)

	// GetUserByID returns the full record, or nil if absent.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUserByName returns the full record, or nil if absent.
	GetUserByName(ctx context.Context, name string) (*models.User, error)

	// AddUser validates and creates a user with a fresh id.
	AddUser(ctx context.Context, u models.NewUser) (*models.User, error)

	// DeleteUser removes the user, their reviews and any movie left
	// without owners.
	DeleteUser(ctx context.Context, id int64) error

	GetUserMovies(ctx context.Context, userID int64) ([]models.Movie, error)

	// AddMovieToUser creates the movie if its id is unseen and associates it
	// with the user. Repeated calls are no-ops.
	AddMovieToUser(ctx context.Context, userID int64, movie models.Movie) error

	// DeleteMovieOfUser removes the association and the user's review of the
	// movie, deleting the movie (and its reviews) when no owner remains.
	DeleteMovieOfUser(ctx context.Context, userID int64, movieID string) (*models.Movie, error)

	// GetUserMovie returns the movie iff the user owns it.
	GetUserMovie(ctx context.Context, userID int64, movieID string) (*models.Movie, error)

	// UpdateMovieOfUser updates director, year and rating of an owned movie.
	UpdateMovieOfUser(ctx context.Context, userID int64, movieID string, upd models.MovieUpdate) (*models.Movie, error)

	// GetMovie returns a movie by catalog id, or nil if absent.
	GetMovie(ctx context.Context, movieID string) (*models.Movie, error)

	// IsPasswordValid is false for unknown and credential-less users.
	IsPasswordValid(ctx context.Context, name, password string) (bool, error)

	// GetUsersMovieReview returns the review text, or "" if there is none.
	GetUsersMovieReview(ctx context.Context, userID int64, movieID string) (string, error)

	// UpdateUsersMovieReview creates or replaces the single review of the
	// (user, movie) pair.
	UpdateUsersMovieReview(ctx context.Context, userID int64, movieID, text string) error

	DeleteReview(ctx context.Context, userID int64, movieID string) error

	GetAllReviewsForMovie(ctx context.Context, movieID string) ([]models.MovieReview, error)

	// Close releases the backend's resources.
	Close() error
}

// Restorer is implemented by backends that can replace their content with
// a default snapshot.
type Restorer interface {
	RestoreDefault(ctx context.Context) error
}

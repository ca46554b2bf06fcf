package flatfile

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/validation"
)

func (s *Store) GetUserMovies(ctx context.Context, userID int64) ([]models.Movie, error) {
	var list []models.Movie
	err := s.view(ctx, func(c collection) error {
		u := c.user(userID)
		if u == nil {
			return userNotFound(userID)
		}
		list = u.snapshot().Movies
		return nil
	})
	return list, err
}

// AddMovieToUser embeds a copy of the movie in the user's list. When any
// user already has the movie, that copy is used instead of movie so that
// all owners see the same record.
func (s *Store) AddMovieToUser(ctx context.Context, userID int64, movie models.Movie) error {
	if movie.ID == "" {
		return fmt.Errorf("%w: movie id cannot be empty", common.ErrInvalidInput)
	}

	return s.update(ctx, func(c collection) (collection, error) {
		u := c.user(userID)
		if u == nil {
			return nil, userNotFound(userID)
		}
		if u.movieIndex(movie.ID) >= 0 {
			return c, nil
		}
		if existing := c.movie(movie.ID); existing != nil {
			movie = *existing
		}
		u.Movies = append(u.Movies, movie)
		return c, nil
	})
}

func (s *Store) DeleteMovieOfUser(ctx context.Context, userID int64, movieID string) (*models.Movie, error) {
	var removed models.Movie
	err := s.update(ctx, func(c collection) (collection, error) {
		u, i, err := ownedMovie(c, userID, movieID, common.ErrConflict)
		if err != nil {
			return nil, err
		}

		removed = u.Movies[i]
		u.Movies = append(u.Movies[:i], u.Movies[i+1:]...)
		u.removeReview(movieID)

		if c.movie(movieID) == nil {
			c.purgeReviews(movieID)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

func (s *Store) GetUserMovie(ctx context.Context, userID int64, movieID string) (*models.Movie, error) {
	var movie models.Movie
	err := s.view(ctx, func(c collection) error {
		u, i, err := ownedMovie(c, userID, movieID, common.ErrNotFound)
		if err != nil {
			return err
		}
		movie = u.Movies[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// UpdateMovieOfUser applies the validated update to every copy of the
// movie, whichever user owns it.
func (s *Store) UpdateMovieOfUser(ctx context.Context, userID int64, movieID string, upd models.MovieUpdate) (*models.Movie, error) {
	var updated models.Movie
	err := s.update(ctx, func(c collection) (collection, error) {
		u, i, err := ownedMovie(c, userID, movieID, common.ErrNotFound)
		if err != nil {
			return nil, err
		}

		valid, err := validation.ValidateMovieUpdate(u.Movies[i], upd, s.now())
		if err != nil {
			return nil, err
		}

		c.updateMovie(movieID, valid)
		updated = u.Movies[i]
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) GetMovie(ctx context.Context, movieID string) (*models.Movie, error) {
	var movie *models.Movie
	err := s.view(ctx, func(c collection) error {
		movie = c.movie(movieID)
		return nil
	})
	return movie, err
}

// ownedMovie locates the movie in the user's list. notOwned is the kind
// reported when the movie exists but the user does not own it.
func ownedMovie(c collection, userID int64, movieID string, notOwned error) (*userRecord, int, error) {
	u := c.user(userID)
	if u == nil {
		return nil, -1, userNotFound(userID)
	}
	if i := u.movieIndex(movieID); i >= 0 {
		return u, i, nil
	}
	if c.movie(movieID) == nil {
		return nil, -1, movieNotFound(movieID)
	}
	return nil, -1, fmt.Errorf("%w: movie %s is not in the list of user %d", notOwned, movieID, userID)
}

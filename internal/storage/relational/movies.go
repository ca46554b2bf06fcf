package relational

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/dbx"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/validation"
)

func (s *Store) GetUserMovies(ctx context.Context, userID int64) ([]models.Movie, error) {
	var list []models.Movie
	err := s.read(ctx, "get user movies", func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.requireUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		list, err = s.repos.Movies(tx).ListByUser(ctx, userID)
		return err
	})
	return list, err
}

// AddMovieToUser stores movie only if its id is new; a known id keeps the
// stored record and just gains an owner.
func (s *Store) AddMovieToUser(ctx context.Context, userID int64, movie models.Movie) error {
	if movie.ID == "" {
		return fmt.Errorf("%w: movie id cannot be empty", common.ErrInvalidInput)
	}

	return s.write(ctx, "add movie to user", func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.requireUser(ctx, tx, userID); err != nil {
			return err
		}
		repo := s.repos.Movies(tx)
		if err := repo.Create(ctx, movie); err != nil {
			return err
		}
		return repo.Associate(ctx, userID, movie.ID)
	})
}

func (s *Store) DeleteMovieOfUser(ctx context.Context, userID int64, movieID string) (*models.Movie, error) {
	var removed *models.Movie
	err := s.write(ctx, "delete movie of user", func(ctx context.Context, tx dbx.DBTX) error {
		m, err := s.ownedMovie(ctx, tx, userID, movieID, common.ErrConflict)
		if err != nil {
			return err
		}

		if err := s.repos.Reviews(tx).Delete(ctx, userID, movieID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if err := s.repos.Movies(tx).Dissociate(ctx, userID, movieID); err != nil {
			return err
		}
		if err := s.purgeIfOrphan(ctx, tx, movieID); err != nil {
			return err
		}
		removed = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) GetUserMovie(ctx context.Context, userID int64, movieID string) (*models.Movie, error) {
	var movie *models.Movie
	err := s.read(ctx, "get user movie", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		movie, err = s.ownedMovie(ctx, tx, userID, movieID, common.ErrNotFound)
		return err
	})
	return movie, err
}

// UpdateMovieOfUser validates the whole update before the single UPDATE.
// The change is visible to every owner of the movie.
func (s *Store) UpdateMovieOfUser(ctx context.Context, userID int64, movieID string, upd models.MovieUpdate) (*models.Movie, error) {
	var updated models.Movie
	err := s.write(ctx, "update movie of user", func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.ownedMovie(ctx, tx, userID, movieID, common.ErrNotFound)
		if err != nil {
			return err
		}

		valid, err := validation.ValidateMovieUpdate(*current, upd, s.now())
		if err != nil {
			return err
		}

		if err := s.repos.Movies(tx).Update(ctx, movieID, valid); err != nil {
			return err
		}
		updated = valid.Apply(*current)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) GetMovie(ctx context.Context, movieID string) (*models.Movie, error) {
	var movie *models.Movie
	err := s.read(ctx, "get movie", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		movie, err = s.repos.Movies(tx).Get(ctx, movieID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return movie, err
}

// ownedMovie loads a movie the user owns. notOwned is the kind reported
// when both exist but are not associated.
func (s *Store) ownedMovie(ctx context.Context, tx dbx.DBTX, userID int64, movieID string, notOwned error) (*models.Movie, error) {
	if err := s.requireUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	repo := s.repos.Movies(tx)
	m, err := repo.Get(ctx, movieID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, movieNotFound(movieID)
	}
	if err != nil {
		return nil, err
	}

	owned, err := repo.IsAssociated(ctx, userID, movieID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("%w: movie %s is not in the list of user %d", notOwned, movieID, userID)
	}
	return m, nil
}

// purgeIfOrphan deletes the movie and its reviews once nobody owns it.
func (s *Store) purgeIfOrphan(ctx context.Context, tx dbx.DBTX, movieID string) error {
	repo := s.repos.Movies(tx)
	n, err := repo.CountOwners(ctx, movieID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if err := s.repos.Reviews(tx).DeleteByMovie(ctx, movieID); err != nil {
		return err
	}
	if err := repo.Delete(ctx, movieID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return nil
}

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

func (s *Store) GetUsersMovieReview(ctx context.Context, userID int64, movieID string) (string, error) {
	var text string
	err := s.read(ctx, "get review", func(ctx context.Context, tx dbx.DBTX) error {
		rv, err := s.repos.Reviews(tx).Get(ctx, userID, movieID)
		if err != nil {
			return err
		}
		text = rv.Text
		return nil
	})
	if errors.Is(err, common.ErrNotFound) {
		return "", nil
	}
	return text, err
}

func (s *Store) UpdateUsersMovieReview(ctx context.Context, userID int64, movieID, text string) error {
	if err := validation.ValidateReviewText(text); err != nil {
		return err
	}

	return s.write(ctx, "update review", func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.requireUserAndMovie(ctx, tx, userID, movieID); err != nil {
			return err
		}
		return s.repos.Reviews(tx).Upsert(ctx, userID, movieID, text)
	})
}

func (s *Store) DeleteReview(ctx context.Context, userID int64, movieID string) error {
	return s.write(ctx, "delete review", func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.ownedMovie(ctx, tx, userID, movieID, common.ErrNotFound); err != nil {
			return err
		}
		err := s.repos.Reviews(tx).Delete(ctx, userID, movieID)
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: review of movie %s by user %d", common.ErrNotFound, movieID, userID)
		}
		return err
	})
}

func (s *Store) GetAllReviewsForMovie(ctx context.Context, movieID string) ([]models.MovieReview, error) {
	var list []models.MovieReview
	err := s.read(ctx, "list reviews", func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Movies(tx).Get(ctx, movieID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return movieNotFound(movieID)
			}
			return err
		}
		var err error
		list, err = s.repos.Reviews(tx).ListForMovie(ctx, movieID)
		return err
	})
	return list, err
}

func (s *Store) requireUserAndMovie(ctx context.Context, tx dbx.DBTX, userID int64, movieID string) error {
	if err := s.requireUser(ctx, tx, userID); err != nil {
		return err
	}
	_, err := s.repos.Movies(tx).Get(ctx, movieID)
	if errors.Is(err, common.ErrNotFound) {
		return movieNotFound(movieID)
	}
	return err
}

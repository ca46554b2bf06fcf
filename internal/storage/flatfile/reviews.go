package flatfile

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/validation"
)

func (s *Store) GetUsersMovieReview(ctx context.Context, userID int64, movieID string) (string, error) {
	var text string
	err := s.view(ctx, func(c collection) error {
		if u := c.user(userID); u != nil {
			if r := u.review(movieID); r != nil {
				text = r.Text
			}
		}
		return nil
	})
	return text, err
}

// UpdateUsersMovieReview keeps at most one review per (user, movie): a
// second call replaces the text and keeps the review id.
func (s *Store) UpdateUsersMovieReview(ctx context.Context, userID int64, movieID, text string) error {
	if err := validation.ValidateReviewText(text); err != nil {
		return err
	}

	return s.update(ctx, func(c collection) (collection, error) {
		u, err := userAndMovie(c, userID, movieID)
		if err != nil {
			return nil, err
		}

		if r := u.review(movieID); r != nil {
			r.Text = text
			return c, nil
		}
		u.Reviews = append(u.Reviews, reviewRecord{ID: s.seq.nextReviewID(c), MovieID: movieID, Text: text})
		return c, nil
	})
}

func (s *Store) DeleteReview(ctx context.Context, userID int64, movieID string) error {
	return s.update(ctx, func(c collection) (collection, error) {
		u, _, err := ownedMovie(c, userID, movieID, common.ErrNotFound)
		if err != nil {
			return nil, err
		}
		if !u.removeReview(movieID) {
			return nil, fmt.Errorf("%w: review of movie %s by user %d", common.ErrNotFound, movieID, userID)
		}
		return c, nil
	})
}

// GetAllReviewsForMovie lists reviews in the order they were written.
func (s *Store) GetAllReviewsForMovie(ctx context.Context, movieID string) ([]models.MovieReview, error) {
	var list []models.MovieReview
	err := s.view(ctx, func(c collection) error {
		if c.movie(movieID) == nil {
			return movieNotFound(movieID)
		}

		type entry struct {
			id int64
			mr models.MovieReview
		}
		var entries []entry
		for _, u := range c {
			if r := u.review(movieID); r != nil {
				entries = append(entries, entry{r.ID, models.MovieReview{ReviewerName: u.Name, Text: r.Text}})
			}
		}
		slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.id, b.id) })

		list = make([]models.MovieReview, 0, len(entries))
		for _, e := range entries {
			list = append(list, e.mr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func userAndMovie(c collection, userID int64, movieID string) (*userRecord, error) {
	u := c.user(userID)
	if u == nil {
		return nil, userNotFound(userID)
	}
	if c.movie(movieID) == nil {
		return nil, movieNotFound(movieID)
	}
	return u, nil
}

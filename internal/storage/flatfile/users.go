package flatfile

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
	"github.com/dmitrijs2005/movieweb/internal/validation"
)

func (s *Store) ListPublicUsers(ctx context.Context) ([]models.UserSummary, error) {
	list := []models.UserSummary{}
	err := s.view(ctx, func(c collection) error {
		for _, u := range c {
			if u.Password == "" {
				list = append(list, models.UserSummary{ID: u.ID, Name: u.Name})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := s.view(ctx, func(c collection) error {
		if u := c.user(id); u != nil {
			user = u.snapshot()
		}
		return nil
	})
	return user, err
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	var user *models.User
	err := s.view(ctx, func(c collection) error {
		if u := c.userByName(name); u != nil {
			user = u.snapshot()
		}
		return nil
	})
	return user, err
}

func (s *Store) AddUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	if err := validation.ValidateUserName(nu.Name); err != nil {
		return nil, err
	}

	rec := &userRecord{Name: nu.Name, Avatar: nu.Avatar, Movies: []models.Movie{}}
	if nu.Password != "" {
		if err := validation.ValidatePassword(nu.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(nu.Password)
		if err != nil {
			return nil, err
		}
		rec.Password = hash
		if rec.Avatar == "" {
			rec.Avatar = models.DefaultAvatar
		}
	}

	err := s.update(ctx, func(c collection) (collection, error) {
		if c.userByName(nu.Name) != nil {
			return nil, fmt.Errorf("%w: user name %q is already taken", common.ErrConflict, nu.Name)
		}
		rec.ID = s.seq.nextUserID(c)
		return append(c, rec), nil
	})
	if err != nil {
		return nil, err
	}
	return rec.snapshot(), nil
}

// DeleteUser drops the user with their reviews, then purges the reviews of
// every movie nobody else owns.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.update(ctx, func(c collection) (collection, error) {
		u := c.user(id)
		if u == nil {
			return nil, userNotFound(id)
		}

		c = c.remove(id)
		for _, m := range u.Movies {
			if c.movie(m.ID) == nil {
				c.purgeReviews(m.ID)
			}
		}
		return c, nil
	})
}

func (s *Store) IsPasswordValid(ctx context.Context, name, password string) (bool, error) {
	var hash string
	err := s.view(ctx, func(c collection) error {
		if u := c.userByName(name); u != nil {
			hash = u.Password
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(hash, password), nil
}

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

func (s *Store) ListPublicUsers(ctx context.Context) ([]models.UserSummary, error) {
	var list []models.UserSummary
	err := s.read(ctx, "list public users", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		list, err = s.repos.Users(tx).ListPublic(ctx)
		return err
	})
	return list, err
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := s.read(ctx, "get user", func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repos.Users(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		user, err = s.withMovies(ctx, tx, u)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	var user *models.User
	err := s.read(ctx, "get user by name", func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repos.Users(tx).GetByName(ctx, name)
		if err != nil {
			return err
		}
		user, err = s.withMovies(ctx, tx, u)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *Store) withMovies(ctx context.Context, tx dbx.DBTX, u *models.User) (*models.User, error) {
	movies, err := s.repos.Movies(tx).ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Movies = movies
	return u, nil
}

// AddUser hashes the password before taking the write lock; bcrypt is slow.
func (s *Store) AddUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	if err := validation.ValidateUserName(nu.Name); err != nil {
		return nil, err
	}

	user := &models.User{Name: nu.Name, Avatar: nu.Avatar, Movies: []models.Movie{}}
	if nu.Password != "" {
		if err := validation.ValidatePassword(nu.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(nu.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
		if user.Avatar == "" {
			user.Avatar = models.DefaultAvatar
		}
	}

	err := s.write(ctx, "add user", func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		_, err := repo.GetByName(ctx, nu.Name)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user name %q is already taken", common.ErrConflict, nu.Name)
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		if _, err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, dbx.ErrDuplicate) {
				return fmt.Errorf("%w: user name %q is already taken", common.ErrConflict, nu.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user's reviews and ownerships, the user, and then
// every movie left without owners.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.write(ctx, "delete user", func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.requireUser(ctx, tx, id); err != nil {
			return err
		}

		movieRepo := s.repos.Movies(tx)
		owned, err := movieRepo.ListByUser(ctx, id)
		if err != nil {
			return err
		}

		if err := s.repos.Reviews(tx).DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := movieRepo.DissociateUser(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Users(tx).Delete(ctx, id); err != nil {
			return err
		}

		for _, m := range owned {
			if err := s.purgeIfOrphan(ctx, tx, m.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) IsPasswordValid(ctx context.Context, name, password string) (bool, error) {
	var hash string
	err := s.read(ctx, "check password", func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repos.Users(tx).GetByName(ctx, name)
		if err != nil {
			return err
		}
		hash = u.Password
		return nil
	})
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(hash, password), nil
}

package movies

import (
	"context"

	"github.com/dmitrijs2005/movieweb/internal/models"
)

// Repository stores movies and the user-movie ownership relation.
type Repository interface {
	Create(ctx context.Context, movie models.Movie) error
	Get(ctx context.Context, id string) (*models.Movie, error)
	Update(ctx context.Context, id string, upd models.MovieUpdate) error
	Delete(ctx context.Context, id string) error

	ListByUser(ctx context.Context, userID int64) ([]models.Movie, error)
	Associate(ctx context.Context, userID int64, movieID string) error
	Dissociate(ctx context.Context, userID int64, movieID string) error
	DissociateUser(ctx context.Context, userID int64) error
	IsAssociated(ctx context.Context, userID int64, movieID string) (bool, error)
	CountOwners(ctx context.Context, movieID string) (int, error)
}

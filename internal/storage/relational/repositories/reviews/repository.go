package reviews

import (
	"context"

	"github.com/dmitrijs2005/movieweb/internal/models"
)

type Repository interface {
	Get(ctx context.Context, userID int64, movieID string) (*models.Review, error)
	Upsert(ctx context.Context, userID int64, movieID, text string) error
	Delete(ctx context.Context, userID int64, movieID string) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteByMovie(ctx context.Context, movieID string) error
	ListForMovie(ctx context.Context, movieID string) ([]models.MovieReview, error)
}

package users

import (
	"context"

	"github.com/dmitrijs2005/movieweb/internal/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	ListPublic(ctx context.Context) ([]models.UserSummary, error)
	Delete(ctx context.Context, id int64) error
}

package users

import (
	"context"

	"github.com/vkarpins/stashkeeper/internal/server/models"
)

// Repository is the persistence contract for user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	MarkVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

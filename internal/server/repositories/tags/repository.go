package tags

import (
	"context"

	"github.com/vkarpins/stashkeeper/internal/server/models"
)

// Repository is the persistence contract for user-scoped tags.
type Repository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	GetByID(ctx context.Context, userID, id string) (*models.Tag, error)
	List(ctx context.Context, userID string) ([]*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, userID, id string) error

	// ResolveByNames and ResolveByIDs return only tags owned by the user
	// matching the given set; unknown or foreign entries are silently dropped.
	ResolveByNames(ctx context.Context, userID string, names []string) ([]*models.Tag, error)
	ResolveByIDs(ctx context.Context, userID string, ids []string) ([]*models.Tag, error)

	ListForContent(ctx context.Context, contentID string) ([]*models.Tag, error)
}

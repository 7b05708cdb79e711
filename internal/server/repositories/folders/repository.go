package folders

import (
	"context"

	"github.com/vkarpins/stashkeeper/internal/server/models"
)

// Repository is the persistence contract for the folder tree. Every method is
// owner-scoped: rows belonging to another user are treated as absent.
type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByID(ctx context.Context, userID, id string) (*models.Folder, error)
	ListRoots(ctx context.Context, userID string) ([]*models.Folder, error)
	ListChildren(ctx context.Context, userID, parentID string) ([]*models.Folder, error)
	ListAll(ctx context.Context, userID string) ([]*models.Folder, error)
	Update(ctx context.Context, folder *models.Folder) error
	Delete(ctx context.Context, userID, id string) error
	Counts(ctx context.Context, userID, id string) (*models.FolderCounts, error)
}

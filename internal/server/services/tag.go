package services

import (
	"context"
	"database/sql"

	"github.com/vkarpins/stashkeeper/internal/server/models"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/repomanager"
)

// TagService manages user-scoped tags.
type TagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewTagService constructs a TagService.
func NewTagService(db *sql.DB, m repomanager.RepositoryManager) *TagService {
	return &TagService{db: db, repomanager: m}
}

// Create adds a tag. Names are unique per user.
func (s *TagService) Create(ctx context.Context, userID, name, color string) (*models.Tag, error) {
	tag := &models.Tag{UserID: userID, Name: name, Color: color}
	return s.repomanager.Tags(s.db).Create(ctx, tag)
}

// Get fetches a tag by id.
func (s *TagService) Get(ctx context.Context, userID, id string) (*models.Tag, error) {
	return s.repomanager.Tags(s.db).GetByID(ctx, userID, id)
}

// List returns all of the user's tags.
func (s *TagService) List(ctx context.Context, userID string) ([]*models.Tag, error) {
	return s.repomanager.Tags(s.db).List(ctx, userID)
}

// Update renames or recolors a tag.
func (s *TagService) Update(ctx context.Context, userID, id, name, color string) (*models.Tag, error) {
	repo := s.repomanager.Tags(s.db)
	tag, err := repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tag.Name = name
	tag.Color = color
	if err := repo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete removes a tag; its links to contents cascade.
func (s *TagService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Tags(s.db).Delete(ctx, userID, id)
}

// Resolve maps tag names to owned tags, silently dropping names the user has
// no tag for.
func (s *TagService) Resolve(ctx context.Context, userID string, names []string) ([]*models.Tag, error) {
	return s.repomanager.Tags(s.db).ResolveByNames(ctx, userID, names)
}

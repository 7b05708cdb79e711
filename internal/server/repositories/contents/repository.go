package contents

import (
	"context"

	"github.com/vkarpins/stashkeeper/internal/server/models"
)

// SearchMode selects how much of a content record the search term is matched
// against.
type SearchMode int

const (
	// SearchBasic matches title and description only.
	SearchBasic SearchMode = iota
	// SearchFull additionally joins the satellite tables and matches the
	// text body and link URL.
	SearchFull
)

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

// Repository is the persistence contract for content records. Every read and
// write is owner-scoped.
type Repository interface {
	Create(ctx context.Context, content *models.Content) (*models.Content, error)
	GetByID(ctx context.Context, userID, id string) (*models.Content, error)
	Update(ctx context.Context, content *models.Content) error
	Delete(ctx context.Context, userID, id string) error

	UpsertText(ctx context.Context, contentID, body string) error
	UpsertLink(ctx context.Context, contentID, url string) error
	UpsertFile(ctx context.Context, contentID string, meta *models.FileMeta) error

	SetFavorite(ctx context.Context, userID, id string, favorite bool) error
	IncrementViews(ctx context.Context, userID, id string) error

	ListByFolder(ctx context.Context, userID, folderID string, page Page) ([]*models.Content, error)
	ListRecent(ctx context.Context, userID string, page Page) ([]*models.Content, error)
	MostViewed(ctx context.Context, userID string, limit int) ([]*models.Content, error)
	ListByTag(ctx context.Context, userID, tagID string, page Page) ([]*models.Content, error)
	Search(ctx context.Context, userID, term string, mode SearchMode, page Page) ([]*models.Content, error)

	ReplaceTags(ctx context.Context, contentID string, tagIDs []string) error
}

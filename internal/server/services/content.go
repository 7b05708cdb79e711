package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/logging"
	"github.com/vkarpins/stashkeeper/internal/server/blob"
	"github.com/vkarpins/stashkeeper/internal/server/models"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/contents"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/repomanager"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	mostViewedLimit = 5
)

// ContentInput carries the caller-supplied fields of a create or update.
// Exactly one payload field matters, selected by Kind: Body for TEXT, URL for
// LINK, MimeType/SizeBytes for FILE.
type ContentInput struct {
	FolderID    *string
	Kind        models.ContentKind
	Title       string
	Description string
	Body        string
	URL         string
	MimeType    string
	SizeBytes   int64
	TagNames    []string
	TagIDs      []string
}

// ContentService manages snippets, links, and file references.
type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	logger      logging.Logger
}

// NewContentService constructs a ContentService.
func NewContentService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, logger logging.Logger) *ContentService {
	return &ContentService{db: db, repomanager: m, blobs: blobs, logger: logger}
}

// Create stores a new content record with its payload and tags in one
// transaction. For FILE contents the returned uploadURL is a presigned PUT
// the client uses to push the bytes; it is empty for other kinds.
func (s *ContentService) Create(ctx context.Context, userID string, in *ContentInput) (content *models.Content, uploadURL string, err error) {
	if in.FolderID != nil {
		if _, err := s.repomanager.Folders(s.db).GetByID(ctx, userID, *in.FolderID); err != nil {
			return nil, "", err
		}
	}

	c := &models.Content{
		UserID:      userID,
		FolderID:    in.FolderID,
		Kind:        in.Kind,
		Title:       in.Title,
		Description: in.Description,
	}

	if in.Kind == models.ContentFile {
		key, url, perr := s.blobs.PresignUpload(ctx)
		if perr != nil {
			return nil, "", fmt.Errorf("error presigning upload: %v", perr)
		}
		uploadURL = url
		c.File = &models.FileMeta{StorageKey: key, MimeType: in.MimeType, SizeBytes: in.SizeBytes}
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Contents(tx)
		created, txErr := repo.Create(ctx, c)
		if txErr != nil {
			return txErr
		}
		c = created
		if txErr := s.savePayload(ctx, tx, c, in); txErr != nil {
			return txErr
		}
		return s.applyTags(ctx, tx, userID, c, in.TagNames, in.TagIDs)
	}); err != nil {
		return nil, "", err
	}
	return c, uploadURL, nil
}

// Get fetches a content with its payload and tags, bumps its view counter,
// and for FILE contents attaches a presigned download URL.
func (s *ContentService) Get(ctx context.Context, userID, id string) (*models.Content, string, error) {
	repo := s.repomanager.Contents(s.db)
	c, err := repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	c.Tags, err = s.repomanager.Tags(s.db).ListForContent(ctx, c.ID)
	if err != nil {
		return nil, "", err
	}
	if err := repo.IncrementViews(ctx, userID, id); err != nil {
		s.logger.Warn(ctx, "view counter not bumped", "content", id, "error", err)
	} else {
		c.Views++
	}

	var downloadURL string
	if c.Kind == models.ContentFile && c.File != nil {
		downloadURL, err = s.blobs.PresignDownload(ctx, c.File.StorageKey)
		if err != nil {
			return nil, "", fmt.Errorf("error presigning download: %v", err)
		}
	}
	return c, downloadURL, nil
}

// Update rewrites the base fields, the payload, and the tag set of a content.
// The kind of an existing content cannot change.
func (s *ContentService) Update(ctx context.Context, userID, id string, in *ContentInput) (*models.Content, error) {
	repo := s.repomanager.Contents(s.db)
	c, err := repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Kind != c.Kind {
		return nil, common.NewValidationError(map[string]string{"kind": "cannot change kind of existing content"})
	}
	if in.FolderID != nil {
		if _, err := s.repomanager.Folders(s.db).GetByID(ctx, userID, *in.FolderID); err != nil {
			return nil, err
		}
	}

	c.FolderID = in.FolderID
	c.Title = in.Title
	c.Description = in.Description

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repomanager.Contents(tx)
		if txErr := txRepo.Update(ctx, c); txErr != nil {
			return txErr
		}
		if txErr := s.savePayload(ctx, tx, c, in); txErr != nil {
			return txErr
		}
		return s.applyTags(ctx, tx, userID, c, in.TagNames, in.TagIDs)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a content; satellite rows and tag links cascade.
func (s *ContentService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Contents(s.db).Delete(ctx, userID, id)
}

// SetFavorite flips the favorite flag.
func (s *ContentService) SetFavorite(ctx context.Context, userID, id string, favorite bool) error {
	return s.repomanager.Contents(s.db).SetFavorite(ctx, userID, id, favorite)
}

// ListByFolder returns the contents directly inside a folder, newest first.
func (s *ContentService) ListByFolder(ctx context.Context, userID, folderID string, limit, offset int) ([]*models.Content, error) {
	if _, err := s.repomanager.Folders(s.db).GetByID(ctx, userID, folderID); err != nil {
		return nil, err
	}
	return s.repomanager.Contents(s.db).ListByFolder(ctx, userID, folderID, clampPage(limit, offset))
}

// ListRecent returns the user's newest contents across all folders.
func (s *ContentService) ListRecent(ctx context.Context, userID string, limit, offset int) ([]*models.Content, error) {
	return s.repomanager.Contents(s.db).ListRecent(ctx, userID, clampPage(limit, offset))
}

// MostViewed returns the user's top five contents by view count.
func (s *ContentService) MostViewed(ctx context.Context, userID string) ([]*models.Content, error) {
	return s.repomanager.Contents(s.db).MostViewed(ctx, userID, mostViewedLimit)
}

// ListByTag returns the contents carrying the given tag.
func (s *ContentService) ListByTag(ctx context.Context, userID, tagID string, limit, offset int) ([]*models.Content, error) {
	if _, err := s.repomanager.Tags(s.db).GetByID(ctx, userID, tagID); err != nil {
		return nil, err
	}
	return s.repomanager.Contents(s.db).ListByTag(ctx, userID, tagID, clampPage(limit, offset))
}

// Search matches the term against titles and descriptions; with full=true it
// also scans text bodies and link URLs. The term is matched literally, as a
// case-insensitive substring.
func (s *ContentService) Search(ctx context.Context, userID, term string, full bool, limit, offset int) ([]*models.Content, error) {
	mode := contents.SearchBasic
	if full {
		mode = contents.SearchFull
	}
	return s.repomanager.Contents(s.db).Search(ctx, userID, term, mode, clampPage(limit, offset))
}

func (s *ContentService) savePayload(ctx context.Context, tx dbx.DBTX, c *models.Content, in *ContentInput) error {
	repo := s.repomanager.Contents(tx)
	switch c.Kind {
	case models.ContentText:
		c.Body = in.Body
		return repo.UpsertText(ctx, c.ID, in.Body)
	case models.ContentLink:
		c.URL = in.URL
		return repo.UpsertLink(ctx, c.ID, in.URL)
	case models.ContentFile:
		if c.File == nil {
			// Update path: keep the stored object, refresh the metadata.
			c.File = &models.FileMeta{}
		}
		if c.File.StorageKey == "" {
			got, err := repo.GetByID(ctx, c.UserID, c.ID)
			if err != nil {
				return err
			}
			if got.File != nil {
				c.File.StorageKey = got.File.StorageKey
			}
		}
		c.File.MimeType = in.MimeType
		c.File.SizeBytes = in.SizeBytes
		return repo.UpsertFile(ctx, c.ID, c.File)
	}
	return common.NewValidationError(map[string]string{"kind": "unknown content kind"})
}

// applyTags resolves tag names and ids leniently, dropping entries the user
// does not own, and replaces the content's tag set with the merged survivors.
func (s *ContentService) applyTags(ctx context.Context, tx dbx.DBTX, userID string, c *models.Content, names, ids []string) error {
	tagsRepo := s.repomanager.Tags(tx)
	byName, err := tagsRepo.ResolveByNames(ctx, userID, names)
	if err != nil {
		return err
	}
	byID, err := tagsRepo.ResolveByIDs(ctx, userID, ids)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(byName)+len(byID))
	merged := make([]*models.Tag, 0, len(byName)+len(byID))
	for _, t := range append(byName, byID...) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		merged = append(merged, t)
	}

	tagIDs := make([]string, 0, len(merged))
	for _, t := range merged {
		tagIDs = append(tagIDs, t.ID)
	}
	if err := s.repomanager.Contents(tx).ReplaceTags(ctx, c.ID, tagIDs); err != nil {
		return err
	}
	c.Tags = merged
	return nil
}

func clampPage(limit, offset int) contents.Page {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return contents.Page{Limit: limit, Offset: offset}
}

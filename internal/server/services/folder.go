package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/server/models"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/repomanager"
)

// FolderNode is one node of the materialized folder tree returned by Tree.
type FolderNode struct {
	Folder   *models.Folder
	Children []*FolderNode
}

// FolderService manages the per-user folder hierarchy.
type FolderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewFolderService constructs a FolderService.
func NewFolderService(db *sql.DB, m repomanager.RepositoryManager) *FolderService {
	return &FolderService{db: db, repomanager: m}
}

// Create adds a folder, optionally under a parent. The parent must exist and
// belong to the same user; sibling names must be unique.
func (s *FolderService) Create(ctx context.Context, userID, name, description string, parentID *string) (*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	if parentID != nil {
		if _, err := repo.GetByID(ctx, userID, *parentID); err != nil {
			return nil, err
		}
	}
	folder := &models.Folder{
		UserID:      userID,
		ParentID:    parentID,
		Name:        name,
		Description: description,
	}
	return repo.Create(ctx, folder)
}

// Get fetches a single folder by id.
func (s *FolderService) Get(ctx context.Context, userID, id string) (*models.Folder, error) {
	return s.repomanager.Folders(s.db).GetByID(ctx, userID, id)
}

// Counts returns the direct content and subfolder counters of a folder.
func (s *FolderService) Counts(ctx context.Context, userID, id string) (*models.FolderCounts, error) {
	repo := s.repomanager.Folders(s.db)
	if _, err := repo.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}
	return repo.Counts(ctx, userID, id)
}

// ListRoots returns the user's top-level folders.
func (s *FolderService) ListRoots(ctx context.Context, userID string) ([]*models.Folder, error) {
	return s.repomanager.Folders(s.db).ListRoots(ctx, userID)
}

// ListChildren returns the direct subfolders of the given folder.
func (s *FolderService) ListChildren(ctx context.Context, userID, parentID string) ([]*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	if _, err := repo.GetByID(ctx, userID, parentID); err != nil {
		return nil, err
	}
	return repo.ListChildren(ctx, userID, parentID)
}

// Tree materializes the user's whole folder hierarchy in one query. The build
// is iterative and bounded: a parent chain that never reaches a root (a cycle
// or an orphaned subtree) yields ErrFolderCycle instead of hanging.
func (s *FolderService) Tree(ctx context.Context, userID string) ([]*FolderNode, error) {
	all, err := s.repomanager.Folders(s.db).ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*FolderNode, len(all))
	for _, f := range all {
		nodes[f.ID] = &FolderNode{Folder: f}
	}

	var roots []*FolderNode
	for _, f := range all {
		if f.ParentID == nil {
			roots = append(roots, nodes[f.ID])
			continue
		}
		parent, ok := nodes[*f.ParentID]
		if !ok {
			return nil, common.ErrFolderCycle
		}
		parent.Children = append(parent.Children, nodes[f.ID])
	}

	// Every node must be reachable from a root; anything left over sits on
	// a cycle.
	reached := 0
	queue := append([]*FolderNode(nil), roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		reached++
		queue = append(queue, n.Children...)
	}
	if reached != len(all) {
		return nil, common.ErrFolderCycle
	}
	return roots, nil
}

// Update renames a folder and/or moves it under a new parent. Moving a folder
// into itself or into one of its own descendants is rejected.
func (s *FolderService) Update(ctx context.Context, userID, id, name, description string, parentID *string) (*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	folder, err := repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if *parentID == id {
			return nil, common.ErrFolderCycle
		}
		if _, err := repo.GetByID(ctx, userID, *parentID); err != nil {
			return nil, err
		}
		ok, err := s.isMoveAcyclic(ctx, userID, id, *parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.ErrFolderCycle
		}
	}

	folder.Name = name
	folder.Description = description
	folder.ParentID = parentID
	if err := repo.Update(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Delete removes a folder together with its subtree and the contents inside
// it (cascaded by the schema).
func (s *FolderService) Delete(ctx context.Context, userID, id string) error {
	repo := s.repomanager.Folders(s.db)
	if _, err := repo.GetByID(ctx, userID, id); err != nil {
		return err
	}
	return repo.Delete(ctx, userID, id)
}

// isMoveAcyclic walks up from newParentID and reports whether the chain
// reaches a root without passing through folderID. The walk is bounded by the
// folder count so a corrupted chain cannot loop forever.
func (s *FolderService) isMoveAcyclic(ctx context.Context, userID, folderID, newParentID string) (bool, error) {
	all, err := s.repomanager.Folders(s.db).ListAll(ctx, userID)
	if err != nil {
		return false, err
	}
	byID := make(map[string]*models.Folder, len(all))
	for _, f := range all {
		byID[f.ID] = f
	}

	cur := newParentID
	for range all {
		f, ok := byID[cur]
		if !ok {
			return false, fmt.Errorf("folder chain broken at %s: %w", cur, common.ErrorInternal)
		}
		if f.ID == folderID {
			return false, nil
		}
		if f.ParentID == nil {
			return true, nil
		}
		cur = *f.ParentID
	}
	return false, common.ErrFolderCycle
}

package models

import "time"

// Folder is one node of a user's self-referential folder tree. ParentID is
// nil for root folders.
type Folder struct {
	ID          string
	UserID      string
	ParentID    *string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FolderCounts holds the on-demand counters for a single folder: direct
// contents and direct subfolders only, grandchildren excluded.
type FolderCounts struct {
	ContentCount   int64
	SubfolderCount int64
}

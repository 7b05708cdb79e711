package models

import "time"

// ContentKind discriminates the satellite payload attached to a content row.
type ContentKind string

const (
	ContentText ContentKind = "TEXT"
	ContentLink ContentKind = "LINK"
	ContentFile ContentKind = "FILE"
)

// Valid reports whether k is one of the known kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case ContentText, ContentLink, ContentFile:
		return true
	}
	return false
}

// FileMeta is the satellite payload of a FILE content. The server never holds
// raw bytes; StorageKey references the external blob store.
type FileMeta struct {
	StorageKey string
	MimeType   string
	SizeBytes  int64
}

// Content is a stored snippet, link, or file reference. Exactly one of Body,
// URL, or File is meaningful, selected by Kind.
type Content struct {
	ID          string
	UserID      string
	FolderID    *string
	Kind        ContentKind
	Title       string
	Description string
	Favorite    bool
	Views       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Body string
	URL  string
	File *FileMeta

	Tags []*Tag
}

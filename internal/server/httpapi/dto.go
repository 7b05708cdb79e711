package httpapi

import (
	"time"

	"github.com/vkarpins/stashkeeper/internal/server/models"
	"github.com/vkarpins/stashkeeper/internal/server/services"
)

// --- requests ---

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type folderRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id"`
}

type contentRequest struct {
	FolderID    *string  `json:"folder_id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	URL         string   `json:"url"`
	MimeType    string   `json:"mime_type"`
	SizeBytes   int64    `json:"size_bytes"`
	Tags        []string `json:"tags"`
	TagIDs      []string `json:"tag_ids"`
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// --- responses ---

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID: u.ID, Username: u.Username, Email: u.Email,
		Verified: u.Verified, CreatedAt: u.CreatedAt,
	}
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type folderResponse struct {
	ID          string    `json:"id"`
	ParentID    *string   `json:"parent_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toFolderResponse(f *models.Folder) folderResponse {
	return folderResponse{
		ID: f.ID, ParentID: f.ParentID, Name: f.Name, Description: f.Description,
		CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt,
	}
}

func toFolderResponses(fs []*models.Folder) []folderResponse {
	out := make([]folderResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, toFolderResponse(f))
	}
	return out
}

type folderNodeResponse struct {
	folderResponse
	Children []folderNodeResponse `json:"children"`
}

func toFolderTreeResponse(nodes []*services.FolderNode) []folderNodeResponse {
	out := make([]folderNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, folderNodeResponse{
			folderResponse: toFolderResponse(n.Folder),
			Children:       toFolderTreeResponse(n.Children),
		})
	}
	return out
}

type folderCountsResponse struct {
	ContentCount   int64 `json:"content_count"`
	SubfolderCount int64 `json:"subfolder_count"`
}

type fileMetaResponse struct {
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

type contentResponse struct {
	ID          string            `json:"id"`
	FolderID    *string           `json:"folder_id"`
	Kind        string            `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Favorite    bool              `json:"favorite"`
	Views       int64             `json:"views"`
	Body        string            `json:"body,omitempty"`
	URL         string            `json:"url,omitempty"`
	File        *fileMetaResponse `json:"file,omitempty"`
	Tags        []tagResponse     `json:"tags,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toContentResponse(c *models.Content) contentResponse {
	out := contentResponse{
		ID: c.ID, FolderID: c.FolderID, Kind: string(c.Kind),
		Title: c.Title, Description: c.Description,
		Favorite: c.Favorite, Views: c.Views,
		Body: c.Body, URL: c.URL,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
	if c.File != nil {
		out.File = &fileMetaResponse{MimeType: c.File.MimeType, SizeBytes: c.File.SizeBytes}
	}
	for _, t := range c.Tags {
		out.Tags = append(out.Tags, toTagResponse(t))
	}
	return out
}

func toContentResponses(cs []*models.Content) []contentResponse {
	out := make([]contentResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toContentResponse(c))
	}
	return out
}

type contentEnvelope struct {
	Content     contentResponse `json:"content"`
	UploadURL   string          `json:"upload_url,omitempty"`
	DownloadURL string          `json:"download_url,omitempty"`
}

type tagResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func toTagResponse(t *models.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Color: t.Color}
}

func toTagResponses(ts []*models.Tag) []tagResponse {
	out := make([]tagResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTagResponse(t))
	}
	return out
}

// Package contents provides a PostgreSQL-backed repository for content
// records and their kind-specific satellite payloads.
package contents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/server/models"
)

const contentColumns = `c.id, c.user_id, c.folder_id, c.kind, c.title, c.description,
	c.favorite, c.views, c.created_at, c.updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the base content row. Satellite payloads are written
// separately so the service can compose them inside one transaction.
func (r *PostgresRepository) Create(ctx context.Context, content *models.Content) (*models.Content, error) {
	query := `
		INSERT INTO contents (user_id, folder_id, kind, title, description, favorite)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, views, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		content.UserID, content.FolderID, string(content.Kind),
		content.Title, content.Description, content.Favorite).
		Scan(&content.ID, &content.Views, &content.CreatedAt, &content.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return content, nil
}

// GetByID returns the content with its satellite payload resolved, or
// common.ErrorNotFound when it is missing or owned by someone else.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Content, error) {
	query := `
		SELECT ` + contentColumns + `,
			COALESCE(t.body, ''), COALESCE(l.url, ''),
			f.storage_key, f.mime_type, f.size_bytes
		FROM contents c
		LEFT JOIN content_texts t ON t.content_id = c.id
		LEFT JOIN content_links l ON l.content_id = c.id
		LEFT JOIN content_files f ON f.content_id = c.id
		WHERE c.user_id = $1 AND c.id = $2
	`
	c := &models.Content{}
	var storageKey, mimeType sql.NullString
	var sizeBytes sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(
		&c.ID, &c.UserID, &c.FolderID, &c.Kind, &c.Title, &c.Description,
		&c.Favorite, &c.Views, &c.CreatedAt, &c.UpdatedAt,
		&c.Body, &c.URL, &storageKey, &mimeType, &sizeBytes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if storageKey.Valid {
		c.File = &models.FileMeta{
			StorageKey: storageKey.String,
			MimeType:   mimeType.String,
			SizeBytes:  sizeBytes.Int64,
		}
	}
	return c, nil
}

// Update rewrites the mutable base fields (title, description, folder).
func (r *PostgresRepository) Update(ctx context.Context, content *models.Content) error {
	query := `
		UPDATE contents
		SET folder_id = $3, title = $4, description = $5, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`
	return r.execExpectingRow(ctx, query,
		content.UserID, content.ID, content.FolderID, content.Title, content.Description)
}

// Delete removes the content; satellite rows and tag links cascade.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM contents
		WHERE user_id = $1 AND id = $2
	`
	return r.execExpectingRow(ctx, query, userID, id)
}

func (r *PostgresRepository) UpsertText(ctx context.Context, contentID, body string) error {
	query := `
		INSERT INTO content_texts (content_id, body)
		VALUES ($1, $2)
		ON CONFLICT (content_id) DO UPDATE SET body = EXCLUDED.body
	`
	if _, err := r.db.ExecContext(ctx, query, contentID, body); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertLink(ctx context.Context, contentID, url string) error {
	query := `
		INSERT INTO content_links (content_id, url)
		VALUES ($1, $2)
		ON CONFLICT (content_id) DO UPDATE SET url = EXCLUDED.url
	`
	if _, err := r.db.ExecContext(ctx, query, contentID, url); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertFile(ctx context.Context, contentID string, meta *models.FileMeta) error {
	query := `
		INSERT INTO content_files (content_id, storage_key, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_id) DO UPDATE SET
			storage_key = EXCLUDED.storage_key,
			mime_type = EXCLUDED.mime_type,
			size_bytes = EXCLUDED.size_bytes
	`
	if _, err := r.db.ExecContext(ctx, query,
		contentID, meta.StorageKey, meta.MimeType, meta.SizeBytes); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetFavorite(ctx context.Context, userID, id string, favorite bool) error {
	query := `
		UPDATE contents
		SET favorite = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`
	return r.execExpectingRow(ctx, query, userID, id, favorite)
}

func (r *PostgresRepository) IncrementViews(ctx context.Context, userID, id string) error {
	query := `
		UPDATE contents
		SET views = views + 1
		WHERE user_id = $1 AND id = $2
	`
	return r.execExpectingRow(ctx, query, userID, id)
}

func (r *PostgresRepository) ListByFolder(ctx context.Context, userID, folderID string, page Page) ([]*models.Content, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM contents c
		WHERE c.user_id = $1 AND c.folder_id = $2
		ORDER BY c.created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, userID, folderID, page.Limit, page.Offset)
}

// ListRecent returns the newest contents first.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, page Page) ([]*models.Content, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM contents c
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, page.Limit, page.Offset)
}

// MostViewed returns the top contents by view count, bounded by limit.
func (r *PostgresRepository) MostViewed(ctx context.Context, userID string, limit int) ([]*models.Content, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM contents c
		WHERE c.user_id = $1
		ORDER BY c.views DESC, c.created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *PostgresRepository) ListByTag(ctx context.Context, userID, tagID string, page Page) ([]*models.Content, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM contents c
		JOIN content_tags ct ON ct.content_id = c.id
		WHERE c.user_id = $1 AND ct.tag_id = $2
		ORDER BY c.created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, userID, tagID, page.Limit, page.Offset)
}

// Search matches term as a case-insensitive substring. Basic mode looks at
// title and description; full mode also joins the text and link satellites.
func (r *PostgresRepository) Search(ctx context.Context, userID, term string, mode SearchMode, page Page) ([]*models.Content, error) {
	pattern := "%" + escapeLike(term) + "%"

	if mode == SearchFull {
		query := `
			SELECT ` + contentColumns + `
			FROM contents c
			LEFT JOIN content_texts t ON t.content_id = c.id
			LEFT JOIN content_links l ON l.content_id = c.id
			WHERE c.user_id = $1 AND (
				c.title ILIKE $2 OR c.description ILIKE $2
				OR t.body ILIKE $2 OR l.url ILIKE $2
			)
			ORDER BY c.created_at DESC
			LIMIT $3 OFFSET $4
		`
		return r.list(ctx, query, userID, pattern, page.Limit, page.Offset)
	}

	query := `
		SELECT ` + contentColumns + `
		FROM contents c
		WHERE c.user_id = $1 AND (c.title ILIKE $2 OR c.description ILIKE $2)
		ORDER BY c.created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, userID, pattern, page.Limit, page.Offset)
}

// ReplaceTags rewrites the tag set of a content record.
func (r *PostgresRepository) ReplaceTags(ctx context.Context, contentID string, tagIDs []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM content_tags WHERE content_id = $1`, contentID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO content_tags (content_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			contentID, tagID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Content, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Content
	for rows.Next() {
		c := &models.Content{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.FolderID, &c.Kind, &c.Title,
			&c.Description, &c.Favorite, &c.Views, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters so a search term is always a
// literal substring match.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

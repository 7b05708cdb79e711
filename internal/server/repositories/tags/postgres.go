// Package tags provides a PostgreSQL-backed repository for user-scoped tags.
package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/server/models"
)

const tagColumns = `id, user_id, name, color, created_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a tag. A name collision for the same owner surfaces as
// common.ErrDuplicateName via the unique constraint.
func (r *PostgresRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	query := `
		INSERT INTO tags (user_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, tag.UserID, tag.Name, tag.Color).
		Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateName
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tag, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Tag, error) {
	query := `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE user_id = $1 AND id = $2
	`
	tag := &models.Tag{}
	err := r.db.QueryRowContext(ctx, query, userID, id).
		Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tag, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Tag, error) {
	query := `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE user_id = $1
		ORDER BY name
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, tag *models.Tag) error {
	query := `
		UPDATE tags
		SET name = $3, color = $4
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, tag.UserID, tag.ID, tag.Name, tag.Color)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicateName
		}
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

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM tags
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, id)
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

// ResolveByNames returns the user's tags whose names appear in the set.
// Names that do not match anything owned by the user are dropped, not errors.
func (r *PostgresRepository) ResolveByNames(ctx context.Context, userID string, names []string) ([]*models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE user_id = $1 AND name = ANY($2)
		ORDER BY name
	`
	return r.list(ctx, query, userID, names)
}

// ResolveByIDs mirrors ResolveByNames for id sets.
func (r *PostgresRepository) ResolveByIDs(ctx context.Context, userID string, ids []string) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + tagColumns + `
		FROM tags
		WHERE user_id = $1 AND id = ANY($2)
		ORDER BY name
	`
	return r.list(ctx, query, userID, ids)
}

// ListForContent returns the tags attached to a content record.
func (r *PostgresRepository) ListForContent(ctx context.Context, contentID string) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.color, t.created_at
		FROM tags t
		JOIN content_tags ct ON ct.tag_id = t.id
		WHERE ct.content_id = $1
		ORDER BY t.name
	`
	return r.list(ctx, query, contentID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Package folders provides a PostgreSQL-backed repository for the
// self-referential folder tree.
package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/server/models"
)

const folderColumns = `id, user_id, parent_id, name, description, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a folder. A sibling with the same name (same parent, same
// owner, case-sensitive) trips the partial unique index and surfaces as
// common.ErrDuplicateName.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query := `
		INSERT INTO folders (user_id, parent_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		folder.UserID, folder.ParentID, folder.Name, folder.Description).
		Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateName
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

// GetByID returns the folder only when it belongs to userID; anything else is
// common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE user_id = $1 AND id = $2
	`
	return scanFolder(r.db.QueryRowContext(ctx, query, userID, id))
}

// ListRoots returns the user's folders without a parent, one level only.
func (r *PostgresRepository) ListRoots(ctx context.Context, userID string) ([]*models.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE user_id = $1 AND parent_id IS NULL
		ORDER BY name
	`
	return r.list(ctx, query, userID)
}

// ListChildren returns the direct children of parentID, one level only.
func (r *PostgresRepository) ListChildren(ctx context.Context, userID, parentID string) ([]*models.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE user_id = $1 AND parent_id = $2
		ORDER BY name
	`
	return r.list(ctx, query, userID, parentID)
}

// ListAll returns every folder of the user; the tree builder assembles the
// hierarchy in memory from this flat set.
func (r *PostgresRepository) ListAll(ctx context.Context, userID string) ([]*models.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE user_id = $1
		ORDER BY name
	`
	return r.list(ctx, query, userID)
}

// Update renames/moves the folder. Sibling collisions surface as
// ErrDuplicateName, missing or foreign rows as ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := `
		UPDATE folders
		SET parent_id = $3, name = $4, description = $5, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		folder.UserID, folder.ID, folder.ParentID, folder.Name, folder.Description)
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

// Delete removes the folder; descendants and contained contents go with it
// via the ON DELETE CASCADE foreign keys.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM folders
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

// Counts returns direct content and subfolder counts for the folder,
// computed on demand. Grandchildren are not included.
func (r *PostgresRepository) Counts(ctx context.Context, userID, id string) (*models.FolderCounts, error) {
	query := `
		SELECT
			(SELECT count(*) FROM contents WHERE user_id = $1 AND folder_id = $2),
			(SELECT count(*) FROM folders WHERE user_id = $1 AND parent_id = $2)
	`
	counts := &models.FolderCounts{}
	err := r.db.QueryRowContext(ctx, query, userID, id).
		Scan(&counts.ContentCount, &counts.SubfolderCount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return counts, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		f := &models.Folder{}
		if err := rows.Scan(&f.ID, &f.UserID, &f.ParentID, &f.Name, &f.Description,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanFolder(row *sql.Row) (*models.Folder, error) {
	f := &models.Folder{}
	err := row.Scan(&f.ID, &f.UserID, &f.ParentID, &f.Name, &f.Description,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// Package refreshtokens provides a PostgreSQL-backed repository for managing
// refresh tokens used in the server's authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new refresh token for userID with an expiry of now+validity.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the refresh token row for the given token string.
// If not found, it returns common.ErrTokenNotFound.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT token, user_id, expires_at, blacklisted
		FROM refresh_tokens
		WHERE token = $1
	`
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.Blacklisted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// Consume blacklists the token if and only if it is not blacklisted yet.
// The conditional update is the replay guard: when two concurrent refresh
// calls present the same token, exactly one sees a row flip and the loser
// gets common.ErrTokenBlacklisted. Missing tokens report ErrTokenNotFound.
func (r *PostgresRepository) Consume(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET blacklisted = true
		WHERE token = $1 AND NOT blacklisted
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrTokenNotFound
	}
	return common.ErrTokenBlacklisted
}

// BlacklistAllForUser revokes every active refresh token of the user.
// Used on logout-all and after credential changes.
func (r *PostgresRepository) BlacklistAllForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET blacklisted = true
		WHERE user_id = $1 AND NOT blacklisted
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired purges tokens whose expiry is before now and returns the
// number of rows removed. The predicate delete is idempotent, so concurrent
// sweeps are safe.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

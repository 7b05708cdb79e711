// Package verificationtokens provides a PostgreSQL-backed repository for
// email-verification and password-reset tokens.
package verificationtokens

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

// Create upserts on (user_id, purpose): a fresh token replaces the previous
// one for the same flow, so at most one is active per purpose per user.
func (r *PostgresRepository) Create(ctx context.Context, token *models.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (token, otp_code, user_id, purpose, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, purpose)
		DO UPDATE SET
			token = EXCLUDED.token,
			otp_code = EXCLUDED.otp_code,
			expires_at = EXCLUDED.expires_at,
			created_at = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		token.Token, token.OTP, token.UserID, string(token.Purpose), token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find looks the token up by full string or OTP code for the given purpose.
// Missing tokens return common.ErrTokenNotFound.
func (r *PostgresRepository) Find(ctx context.Context, purpose models.TokenPurpose, tokenOrOTP string) (*models.VerificationToken, error) {
	query := `
		SELECT token, otp_code, user_id, purpose, expires_at, created_at
		FROM verification_tokens
		WHERE purpose = $1 AND (token = $2 OR otp_code = $2)
	`
	vt := &models.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query, string(purpose), tokenOrOTP).
		Scan(&vt.Token, &vt.OTP, &vt.UserID, &vt.Purpose, &vt.ExpiresAt, &vt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return vt, nil
}

// FindByToken matches the full token string only, never the OTP code.
func (r *PostgresRepository) FindByToken(ctx context.Context, purpose models.TokenPurpose, token string) (*models.VerificationToken, error) {
	query := `
		SELECT token, otp_code, user_id, purpose, expires_at, created_at
		FROM verification_tokens
		WHERE purpose = $1 AND token = $2
	`
	vt := &models.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query, string(purpose), token).
		Scan(&vt.Token, &vt.OTP, &vt.UserID, &vt.Purpose, &vt.ExpiresAt, &vt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return vt, nil
}

// Delete removes a verification token by its token string.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM verification_tokens
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired purges tokens past expiry; idempotent under concurrent sweeps.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM verification_tokens
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

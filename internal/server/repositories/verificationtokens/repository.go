package verificationtokens

import (
	"context"
	"time"

	"github.com/vkarpins/stashkeeper/internal/server/models"
)

// Repository is the persistence contract for single-use verification tokens
// (email verification, password reset).
type Repository interface {
	// Create stores the token, superseding any prior token of the same user
	// and purpose.
	Create(ctx context.Context, token *models.VerificationToken) error
	// Find matches either the full token string or the short OTP code,
	// restricted to the given purpose.
	Find(ctx context.Context, purpose models.TokenPurpose, tokenOrOTP string) (*models.VerificationToken, error)
	// FindByToken matches the full token string only. Password resets are
	// redeemed this way: the short OTP code is too small a space to guard a
	// credential rewrite.
	FindByToken(ctx context.Context, purpose models.TokenPurpose, token string) (*models.VerificationToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

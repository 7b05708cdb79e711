package refreshtokens

import (
	"context"
	"time"

	"github.com/vkarpins/stashkeeper/internal/server/models"
)

// Repository is the persistence contract for refresh tokens.
type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Consume(ctx context.Context, token string) error
	BlacklistAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/vkarpins/stashkeeper/internal/logging"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/repomanager"
)

// Sweeper periodically deletes expired refresh and verification tokens.
// Blacklisted-but-unexpired tokens are kept so replay attempts keep failing
// loudly until their natural expiry.
type Sweeper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	interval    time.Duration
}

// NewSweeper constructs a Sweeper with the given cadence.
func NewSweeper(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{db: db, repomanager: m, logger: logger, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()

	refresh, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error(ctx, "refresh token sweep failed", "error", err)
	}
	verification, err := s.repomanager.VerificationTokens(s.db).DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error(ctx, "verification token sweep failed", "error", err)
	}

	if refresh > 0 || verification > 0 {
		s.logger.Info(ctx, "expired tokens swept",
			"refresh", refresh, "verification", verification)
	}
}

// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, email verification,
// password resets, and issuing/refreshing JWTs plus server-stored refresh
// tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/dbx"
	"github.com/vkarpins/stashkeeper/internal/logging"
	"github.com/vkarpins/stashkeeper/internal/server/auth"
	"github.com/vkarpins/stashkeeper/internal/server/config"
	"github.com/vkarpins/stashkeeper/internal/server/mail"
	"github.com/vkarpins/stashkeeper/internal/server/models"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// dummyHash keeps the bcrypt cost of a login against an unknown email in the
// same ballpark as one against a known email.
var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("stashkeeper-dummy"), bcrypt.DefaultCost)
	return h
}()

// UserService provides authentication-related operations:
// - Register: create users and dispatch verification mail
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - VerifyEmail / password-reset flows
type UserService struct {
	db                        *sql.DB
	repomanager               repomanager.RepositoryManager
	mailer                    mail.Mailer
	logger                    logging.Logger
	jwtSecret                 []byte
	accessTokenValidity       time.Duration
	refreshTokenValidity      time.Duration
	verificationTokenValidity time.Duration
	requireVerifiedEmail      bool
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, mailer mail.Mailer, logger logging.Logger) *UserService {
	return &UserService{
		db:                        db,
		repomanager:               m,
		mailer:                    mailer,
		logger:                    logger,
		jwtSecret:                 []byte(cfg.SecretKey),
		accessTokenValidity:       cfg.AccessTokenValidity,
		refreshTokenValidity:      cfg.RefreshTokenValidity,
		verificationTokenValidity: cfg.VerificationTokenValidity,
		requireVerifiedEmail:      cfg.RequireVerifiedEmail,
	}
}

// Register creates a new user account and dispatches a verification email.
// Mail delivery is best effort: a send failure is logged, not returned.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Enabled:      true,
	}

	var created *models.User
	var vt *models.VerificationToken
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		created, txErr = s.repomanager.Users(tx).Create(ctx, user)
		if txErr != nil {
			return txErr
		}
		vt, txErr = s.issueVerificationToken(ctx, tx, created.ID, models.PurposeEmailVerify)
		return txErr
	}); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, created.Email, vt.Token, vt.OTP); err != nil {
		s.logger.Warn(ctx, "verification email not sent", "email", created.Email, "error", err)
	}
	return created, nil
}

// Login verifies credentials and, on success, returns a new TokenPair.
// All credential failures read as ErrInvalidCredentials; disabled and
// unverified accounts are reported only after the password check passes.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn a comparison anyway so absent accounts cost the same.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, common.ErrAccountDisabled
	}
	if s.requireVerifiedEmail && !user.Verified {
		return nil, common.ErrEmailNotVerified
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. The rotation is a conditional update: when two
// requests race on the same token, exactly one of them consumes it and the
// other gets ErrTokenBlacklisted.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}
	if token.Blacklisted {
		return nil, common.ErrTokenBlacklisted
	}
	if token.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken); err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		if errors.Is(err, common.ErrTokenBlacklisted) || errors.Is(err, common.ErrTokenNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error rotating refresh token: %v", err)
	}
	return pair, nil
}

// Logout blacklists a single refresh token. A token that is already
// blacklisted logs out cleanly; an unknown token is reported.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	err := s.repomanager.RefreshTokens(s.db).Consume(ctx, refreshToken)
	if errors.Is(err, common.ErrTokenBlacklisted) {
		return nil
	}
	return err
}

// LogoutAll blacklists every refresh token the user holds.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	return s.repomanager.RefreshTokens(s.db).BlacklistAllForUser(ctx, userID)
}

// VerifyEmail redeems an email-verification token (full token or OTP code),
// marks the account verified, and burns the token.
func (s *UserService) VerifyEmail(ctx context.Context, tokenOrOTP string) (*models.User, error) {
	vt, err := s.repomanager.VerificationTokens(s.db).Find(ctx, models.PurposeEmailVerify, tokenOrOTP)
	if err != nil {
		return nil, err
	}
	if vt.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrTokenExpired
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).MarkVerified(ctx, vt.UserID); err != nil {
			return err
		}
		return s.repomanager.VerificationTokens(tx).Delete(ctx, vt.Token)
	}); err != nil {
		return nil, fmt.Errorf("error verifying email: %v", err)
	}
	return s.repomanager.Users(s.db).GetByID(ctx, vt.UserID)
}

// RequestPasswordReset issues a reset token and mails it. An unknown email
// returns nil without sending anything, so the endpoint does not reveal
// which addresses are registered.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}

	vt, err := s.issueVerificationToken(ctx, s.db, user.ID, models.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("error issuing reset token: %v", err)
	}
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, vt.Token); err != nil {
		s.logger.Warn(ctx, "password reset email not sent", "email", user.Email, "error", err)
	}
	return nil
}

// ResetPassword redeems a password-reset token, stores the new password
// hash, burns the token, and revokes every open session of the account.
// Only the full token is accepted; the OTP code cannot rewrite a password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	vt, err := s.repomanager.VerificationTokens(s.db).FindByToken(ctx, models.PurposePasswordReset, token)
	if err != nil {
		return err
	}
	if vt.ExpiresAt.Before(time.Now()) {
		return common.ErrTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, vt.UserID, string(hash)); err != nil {
			return err
		}
		if err := s.repomanager.VerificationTokens(tx).Delete(ctx, vt.Token); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).BlacklistAllForUser(ctx, vt.UserID)
	}); err != nil {
		return fmt.Errorf("error resetting password: %v", err)
	}
	return nil
}

// GetUser fetches the account profile by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidity)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidity); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) issueVerificationToken(ctx context.Context, tx dbx.DBTX, userID string, purpose models.TokenPurpose) (*models.VerificationToken, error) {
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	otp, err := common.MakeOTPCode(6)
	if err != nil {
		return nil, common.ErrorInternal
	}
	vt := &models.VerificationToken{
		Token:     token,
		OTP:       otp,
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.verificationTokenValidity),
	}
	if err := s.repomanager.VerificationTokens(tx).Create(ctx, vt); err != nil {
		return nil, err
	}
	return vt, nil
}

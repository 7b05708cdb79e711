package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/server/config"
	"github.com/vkarpins/stashkeeper/internal/server/models"
	"github.com/vkarpins/stashkeeper/internal/server/repositories/repomanager"
)

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, mailer *fakeMailer) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                 "k",
		AccessTokenValidity:       time.Hour,
		RefreshTokenValidity:      2 * time.Hour,
		VerificationTokenValidity: time.Hour,
		RequireVerifiedEmail:      true,
	}
	if mailer == nil {
		mailer = &fakeMailer{}
	}
	return NewUserService(db, rm, cfg, mailer, nopLogger{})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func TestRegister_CreatesUserAndSendsMail(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	mailer := &fakeMailer{}
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, v: &fakeVerificationRepo{}}
	s := newUserService(t, db, rm, mailer)

	user, err := s.Register(context.Background(), "alice", "alice@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID == "" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "pw123456" {
		t.Fatal("password stored in the clear")
	}
	if rm.v.created == nil || rm.v.created.Purpose != models.PurposeEmailVerify {
		t.Fatalf("verification token not issued: %+v", rm.v.created)
	}
	if mailer.verifyTo != "alice@example.com" || mailer.verifyToken != rm.v.created.Token {
		t.Fatalf("mail not dispatched: %+v", mailer)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrorConflict}, v: &fakeVerificationRepo{}}
	s := newUserService(t, db, rm, nil)

	_, err := s.Register(context.Background(), "alice", "alice@example.com", "pw")
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want ErrorConflict, got %v", err)
	}
}

func TestRegister_MailFailureIsNotFatal(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	mailer := &fakeMailer{sendErr: errBoom{}}
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, v: &fakeVerificationRepo{}}
	s := newUserService(t, db, rm, mailer)

	if _, err := s.Register(context.Background(), "alice", "alice@example.com", "pw"); err != nil {
		t.Fatalf("Register should survive a mail failure, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{
			ID: "u1", Email: "a@b.c", PasswordHash: mustHash(t, "correct"),
			Enabled: true, Verified: true,
		}},
		r: &fakeRefreshRepo{},
	}
	s := newUserService(t, db, rm, nil)

	pair, err := s.Login(context.Background(), "a@b.c", "correct")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
	if rm.r.createdUser != "u1" {
		t.Fatalf("refresh token stored for wrong user: %q", rm.r.createdUser)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{
			ID: "u1", PasswordHash: mustHash(t, "correct"), Enabled: true, Verified: true,
		}},
	}
	s := newUserService(t, db, rm, nil)

	_, err := s.Login(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: common.ErrorNotFound}}
	s := newUserService(t, db, rm, nil)

	_, err := s.Login(context.Background(), "ghost@b.c", "whatever")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("unknown email must not be distinguishable, got %v", err)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{
			ID: "u1", PasswordHash: mustHash(t, "correct"), Enabled: false, Verified: true,
		}},
	}
	s := newUserService(t, db, rm, nil)

	_, err := s.Login(context.Background(), "a@b.c", "correct")
	if !errors.Is(err, common.ErrAccountDisabled) {
		t.Fatalf("want ErrAccountDisabled, got %v", err)
	}
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{
			ID: "u1", PasswordHash: mustHash(t, "correct"), Enabled: true, Verified: false,
		}},
	}
	s := newUserService(t, db, rm, nil)

	_, err := s.Login(context.Background(), "a@b.c", "correct")
	if !errors.Is(err, common.ErrEmailNotVerified) {
		t.Fatalf("want ErrEmailNotVerified, got %v", err)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{Token: "refresh-xyz", UserID: "u1", ExpiresAt: time.Now().Add(10 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm, nil)

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
	if pair.RefreshToken == "refresh-xyz" {
		t.Fatal("refresh token was not rotated")
	}
	if len(rm.r.consumed) != 1 || rm.r.consumed[0] != "refresh-xyz" {
		t.Fatalf("old token not consumed: %v", rm.r.consumed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", ExpiresAt: time.Now().Add(-1 * time.Minute)},
		},
	}
	s := newUserService(t, db, rm, nil)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestRefreshToken_Blacklisted(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour), Blacklisted: true},
		},
	}
	s := newUserService(t, db, rm, nil)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrTokenBlacklisted) {
		t.Fatalf("want ErrTokenBlacklisted, got %v", err)
	}
}

func TestRefreshToken_LostRace(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	// Find sees a live token but Consume reports it already blacklisted:
	// a concurrent request won the rotation.
	rm := &fakeRepoManager{
		r: &fakeRefreshRepo{
			findOut:    &models.RefreshToken{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)},
			consumeErr: common.ErrTokenBlacklisted,
		},
	}
	s := newUserService(t, db, rm, nil)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrTokenBlacklisted) {
		t.Fatalf("want ErrTokenBlacklisted, got %v", err)
	}
}

func TestRefreshToken_NotFound(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{r: &fakeRefreshRepo{findErr: common.ErrTokenNotFound}}
	s := newUserService(t, db, rm, nil)

	_, err := s.RefreshToken(context.Background(), "r")
	if !errors.Is(err, common.ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
}

func TestLogout_IdempotentOnBlacklisted(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{r: &fakeRefreshRepo{consumeErr: common.ErrTokenBlacklisted}}
	s := newUserService(t, db, rm, nil)

	if err := s.Logout(context.Background(), "r"); err != nil {
		t.Fatalf("logging out twice should succeed, got %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{r: &fakeRefreshRepo{}}
	s := newUserService(t, db, rm, nil)

	if err := s.LogoutAll(context.Background(), "u1"); err != nil {
		t.Fatalf("LogoutAll error: %v", err)
	}
	if rm.r.blacklistedUser != "u1" {
		t.Fatalf("wrong user blacklisted: %q", rm.r.blacklistedUser)
	}
}

func TestVerifyEmail_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byIDOut: &models.User{ID: "u1", Verified: true}},
		v: &fakeVerificationRepo{
			findOut: &models.VerificationToken{
				Token: "tok", UserID: "u1", Purpose: models.PurposeEmailVerify,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
	s := newUserService(t, db, rm, nil)

	user, err := s.VerifyEmail(context.Background(), "tok")
	if err != nil {
		t.Fatalf("VerifyEmail error: %v", err)
	}
	if !user.Verified {
		t.Fatal("user not verified")
	}
	if rm.u.markVerifiedID != "u1" {
		t.Fatalf("wrong user marked: %q", rm.u.markVerifiedID)
	}
	if len(rm.v.deleted) != 1 || rm.v.deleted[0] != "tok" {
		t.Fatalf("token not burned: %v", rm.v.deleted)
	}
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		v: &fakeVerificationRepo{
			findOut: &models.VerificationToken{
				Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute),
			},
		},
	}
	s := newUserService(t, db, rm, nil)

	_, err := s.VerifyEmail(context.Background(), "tok")
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	mailer := &fakeMailer{}
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: common.ErrorNotFound}, v: &fakeVerificationRepo{}}
	s := newUserService(t, db, rm, mailer)

	if err := s.RequestPasswordReset(context.Background(), "ghost@b.c"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if mailer.resetTo != "" {
		t.Fatalf("mail sent for unknown account: %q", mailer.resetTo)
	}
}

func TestRequestPasswordReset_IssuesTokenAndMails(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	mailer := &fakeMailer{}
	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{ID: "u1", Email: "a@b.c"}},
		v: &fakeVerificationRepo{},
	}
	s := newUserService(t, db, rm, mailer)

	if err := s.RequestPasswordReset(context.Background(), "a@b.c"); err != nil {
		t.Fatalf("RequestPasswordReset error: %v", err)
	}
	if rm.v.created == nil || rm.v.created.Purpose != models.PurposePasswordReset {
		t.Fatalf("reset token not issued: %+v", rm.v.created)
	}
	if mailer.resetTo != "a@b.c" || mailer.resetToken != rm.v.created.Token {
		t.Fatalf("mail not dispatched: %+v", mailer)
	}
}

func TestResetPassword_RevokesSessions(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{},
		r: &fakeRefreshRepo{},
		v: &fakeVerificationRepo{
			findByTokenOut: &models.VerificationToken{
				Token: "tok", UserID: "u1", Purpose: models.PurposePasswordReset,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
	s := newUserService(t, db, rm, nil)

	if err := s.ResetPassword(context.Background(), "tok", "newpw12345"); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}
	if rm.u.updatedHash == "" || rm.u.updatedHash == "newpw12345" {
		t.Fatalf("password not hashed: %q", rm.u.updatedHash)
	}
	if len(rm.v.deleted) != 1 {
		t.Fatalf("token not burned: %v", rm.v.deleted)
	}
	if rm.r.blacklistedUser != "u1" {
		t.Fatalf("open sessions not revoked: %q", rm.r.blacklistedUser)
	}
}

func TestResetPassword_BadToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{v: &fakeVerificationRepo{findByTokenErr: common.ErrTokenNotFound}}
	s := newUserService(t, db, rm, nil)

	err := s.ResetPassword(context.Background(), "nope", "pw")
	if !errors.Is(err, common.ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
}

func TestResetPassword_OTPCodeRejected(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	// The reset token exists and its OTP code is known, but resets redeem by
	// full token only: the token-only lookup must come back empty and the
	// stored password must stay untouched.
	rm := &fakeRepoManager{
		u: &fakeUsersRepo{},
		r: &fakeRefreshRepo{},
		v: &fakeVerificationRepo{
			findOut: &models.VerificationToken{
				Token: "tok", OTP: "123456", UserID: "u1", Purpose: models.PurposePasswordReset,
				ExpiresAt: time.Now().Add(time.Hour),
			},
			findByTokenErr: common.ErrTokenNotFound,
		},
	}
	s := newUserService(t, db, rm, nil)

	err := s.ResetPassword(context.Background(), "123456", "attacker-pass-123")
	if !errors.Is(err, common.ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
	if rm.u.updatedHash != "" {
		t.Fatalf("password was rewritten: %q", rm.u.updatedHash)
	}
}

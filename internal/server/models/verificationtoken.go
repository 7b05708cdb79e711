package models

import "time"

// TokenPurpose names the flow a verification token belongs to. A user holds
// at most one active token per purpose; creating a new one supersedes it.
type TokenPurpose string

const (
	PurposeEmailVerify   TokenPurpose = "email_verify"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// VerificationToken is a single-use token for email verification or password
// reset. OTP is a short numeric alternative to the full token string.
type VerificationToken struct {
	Token     string
	OTP       string
	UserID    string
	Purpose   TokenPurpose
	ExpiresAt time.Time
	CreatedAt time.Time
}

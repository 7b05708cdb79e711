// Package common defines shared constants and sentinel errors used across
// the StashKeeper layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors. ErrorNotFound also covers rows that exist but
	// belong to another owner, so callers cannot probe for foreign resources.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Login errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrEmailNotVerified   = errors.New("email not verified")

	// Access-token errors, kept distinct so callers can log and react
	// differently before the boundary collapses them to 401.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")

	// Refresh/verification token lifecycle errors.
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenBlacklisted    = errors.New("token blacklisted")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Hierarchy errors.
	ErrDuplicateName = errors.New("duplicate name")
	ErrFolderCycle   = errors.New("folder tree cycle")
)

// ValidationError carries a field -> message map produced by explicit input
// validation. It satisfies error so services can return it alongside the
// sentinel values above.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

// NewValidationError builds a ValidationError from an existing field map.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

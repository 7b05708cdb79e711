// Package auth implements the access-token codec: HS256-signed JWTs carrying
// the subject user id. Revocation state lives elsewhere (refresh-token store);
// verification here is purely cryptographic.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vkarpins/stashkeeper/internal/common"
)

// Claims includes the registered claims plus the subject user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// GenerateToken issues a signed access token for userID valid for
// validityDuration from now.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies tokenString and returns the embedded user id.
// Failures map to distinct sentinels so callers can tell an expired token
// from a forged or garbled one:
//   - common.ErrTokenExpired    — valid signature, expiry in the past
//   - common.ErrTokenSignature  — signature does not verify
//   - common.ErrTokenMalformed  — not a parseable token at all
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrTokenSignature
		}
		return secretKey, nil
	})
	if err != nil {
		// Signature first: an expired claim on a forged token must not read
		// as merely expired.
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", common.ErrTokenSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", common.ErrTokenExpired
		default:
			return "", common.ErrTokenMalformed
		}
	}

	if !token.Valid {
		return "", common.ErrTokenMalformed
	}

	return claims.UserID, nil
}

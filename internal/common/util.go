package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding, so the resulting string is twice as long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeOTPCode generates a random numeric one-time code of the given number of
// digits, zero-padded. Used for email verification codes typed by hand.
func MakeOTPCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("invalid otp length: %d", digits)
	}
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

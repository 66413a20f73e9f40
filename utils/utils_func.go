package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// GenerateVerificationCode returns a uniformly random 6-digit code.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashVerificationCode hashes code with argon2id, salted by the owning record's id.
func HashVerificationCode(code, salt string) string {
	hashed := argon2.IDKey([]byte(code), []byte(salt), 1, 64*1024, 4, 32)
	return fmt.Sprintf("%x", hashed)
}

func VerifyCode(code, salt, expectedHash string) bool {
	got := HashVerificationCode(code, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expectedHash)) == 1
}

package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password mismatch")

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// IsHashed reports whether stored looks like a bcrypt hash. Rows imported
// from the old user table may still hold plaintext.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// VerifyPassword checks plain against stored. needsRehash is true when the
// stored value was legacy plaintext and matched.
func VerifyPassword(stored, plain string) (needsRehash bool, err error) {
	if IsHashed(stored) {
		if err := CheckPassword(stored, plain); err != nil {
			return false, ErrPasswordMismatch
		}
		return false, nil
	}

	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) != 1 {
		return false, ErrPasswordMismatch
	}

	return true, nil
}

package unlock

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PlainCode compares against a shared code held in configuration.
type PlainCode string

// Verify reports whether code matches after trimming whitespace.
func (c PlainCode) Verify(code string) bool {
	if c == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(c)) == 1
}

// HashedCode compares against a bcrypt hash of the shared code.
type HashedCode string

// Verify reports whether code matches the hash.
func (c HashedCode) Verify(code string) bool {
	if c == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c), []byte(strings.TrimSpace(code))) == nil
}

// HashCode returns a bcrypt hash suitable for HashedCode.
func HashCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

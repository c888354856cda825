package service

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no account matches, so that unknown
// identifiers cost the same as wrong passwords.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// Any comparison error, including a malformed hash, is a mismatch.
func VerifyPassword(storedHash, password string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}

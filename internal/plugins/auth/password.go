package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword creates a salted bcrypt hash at the given cost.
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// verifyPassword checks a plaintext password against a bcrypt hash.
// bcrypt compares in constant time.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

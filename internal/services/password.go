package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password. Input that is already a bcrypt
// hash is returned unchanged so imported or replayed records are not
// double hashed.
func (h PasswordHasher) Hash(password string) (string, error) {
	if IsPasswordHash(password) {
		return password, nil
	}
	if err := checkPasswordLength(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalidRequest("password must be at most 72 bytes")
		}
		return "", err
	}
	return string(hashed), nil
}

func checkPasswordLength(password string) error {
	if len(password) > MaxPasswordBytes {
		return invalidRequest("password must be at most 72 bytes")
	}
	return nil
}

// Matches reports whether password verifies against hash.
func (h PasswordHasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsPasswordHash reports whether value is a well-formed bcrypt hash.
func IsPasswordHash(value string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(value, prefix) {
			_, err := bcrypt.Cost([]byte(value))
			return err == nil
		}
	}
	return false
}

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialHasher hashes relay and gateway group secrets at rest.
type CredentialHasher struct {
	cost int
}

// NewCredentialHasher creates a hasher with the given bcrypt cost, clamped
// to the library's valid range.
func NewCredentialHasher(cost int) *CredentialHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialHasher{cost: cost}
}

// Hash derives the storage form of a secret.
func (h *CredentialHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return string(hash), nil
}

// Verify compares a presented secret against its stored hash. The error is
// deliberately uniform across mismatch and malformed-hash causes.
func (h *CredentialHasher) Verify(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return fmt.Errorf("credential verification failed")
	}
	return nil
}

// Package id generates Stripe-style short identifiers used as external API
// identifiers for every broker entity.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Prefixes for different entity types (Stripe-style)
const (
	PrefixActor      = "act"
	PrefixActorGroup = "grp"
	PrefixMembership = "mem"
	PrefixResource   = "res"
	PrefixPolicy     = "pol"
	PrefixFlow       = "flw"
	PrefixGateway    = "gw"
	PrefixSite       = "site"
	PrefixRelay      = "rly"
	PrefixToken      = "tok"
	PrefixClient     = "cli"
)

// Generate creates a random short ID with the specified length using Base62
// encoding. The generated ID is cryptographically random and URL-safe.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// MustGenerate creates a random short ID and panics on error.
func MustGenerate(length int) string {
	id, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateWithPrefix creates a prefixed ID in the format "prefix_random".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}

// MustGenerateWithPrefix creates a prefixed ID and panics on error.
func MustGenerateWithPrefix(prefix string, length int) string {
	id, err := GenerateWithPrefix(prefix, length)
	if err != nil {
		panic(err)
	}
	return id
}

// Prefix extracts the entity prefix from a prefixed ID, or "" when the ID
// carries none.
func Prefix(id string) string {
	idx := strings.IndexByte(id, '_')
	if idx <= 0 {
		return ""
	}
	return id[:idx]
}

// ValidatePrefix checks that the ID carries the expected entity prefix and
// a non-empty random part.
func ValidatePrefix(id, prefix string) error {
	if Prefix(id) != prefix {
		return fmt.Errorf("expected prefix %q", prefix)
	}
	if len(id) <= len(prefix)+1 {
		return fmt.Errorf("missing identifier after prefix")
	}
	return nil
}

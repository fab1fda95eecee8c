// Package token contains the opaque bearer credential entity and the
// encode/verify contract fulfilled by the auth infrastructure. The core never
// touches signing primitives directly.
package token

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Type classifies what kind of session a token establishes.
type Type string

const (
	TypeBrowser      Type = "browser"
	TypeClient       Type = "client"
	TypeGatewayGroup Type = "gateway_group"
	TypeRelayGroup   Type = "relay_group"
	TypeAPIClient    Type = "api_client"
)

// NewType validates a token type string.
func NewType(s string) (Type, error) {
	t := Type(s)
	switch t {
	case TypeBrowser, TypeClient, TypeGatewayGroup, TypeRelayGroup, TypeAPIClient:
		return t, nil
	default:
		return "", fmt.Errorf("invalid token type: %s", s)
	}
}

func (t Type) String() string { return string(t) }

// Token is an opaque bearer credential. A token always has an expiry; flow
// expiry is capped by it so access cannot outlive the session that
// established it.
type Token struct {
	id        uint
	sid       string
	accountID uint
	actorID   uint
	tokenType Type
	expiresAt time.Time
	deletedAt *time.Time
	createdAt time.Time
}

// NewToken creates a new token record. expiresAt must be set.
func NewToken(accountID, actorID uint, tokenType Type, expiresAt time.Time) (*Token, error) {
	if accountID == 0 || actorID == 0 {
		return nil, fmt.Errorf("account and actor IDs are required")
	}
	if expiresAt.IsZero() {
		return nil, fmt.Errorf("token expiry is required")
	}
	if _, err := NewType(tokenType.String()); err != nil {
		return nil, err
	}
	return &Token{
		sid:       id.MustGenerateWithPrefix(id.PrefixToken, id.DefaultLength),
		accountID: accountID,
		actorID:   actorID,
		tokenType: tokenType,
		expiresAt: expiresAt.UTC(),
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructToken rebuilds a token from persistence.
func ReconstructToken(
	tokenID uint,
	sid string,
	accountID, actorID uint,
	tokenType Type,
	expiresAt time.Time,
	deletedAt *time.Time,
	createdAt time.Time,
) (*Token, error) {
	if tokenID == 0 {
		return nil, fmt.Errorf("token ID cannot be zero")
	}
	return &Token{
		id:        tokenID,
		sid:       sid,
		accountID: accountID,
		actorID:   actorID,
		tokenType: tokenType,
		expiresAt: expiresAt,
		deletedAt: deletedAt,
		createdAt: createdAt,
	}, nil
}

func (t *Token) ID() uint              { return t.id }
func (t *Token) SID() string           { return t.sid }
func (t *Token) AccountID() uint       { return t.accountID }
func (t *Token) ActorID() uint         { return t.actorID }
func (t *Token) Type() Type            { return t.tokenType }
func (t *Token) ExpiresAt() time.Time  { return t.expiresAt }
func (t *Token) DeletedAt() *time.Time { return t.deletedAt }
func (t *Token) CreatedAt() time.Time  { return t.createdAt }

// SetID assigns the database identity after the initial insert.
func (t *Token) SetID(tokenID uint) error {
	if t.id != 0 {
		return fmt.Errorf("token ID already set")
	}
	t.id = tokenID
	return nil
}

// IsExpired reports whether the token has lapsed at the given instant.
func (t *Token) IsExpired(now time.Time) bool {
	return !t.expiresAt.After(now)
}

// IsDeleted reports whether the token was revoked.
func (t *Token) IsDeleted() bool { return t.deletedAt != nil }

// Revoke soft-deletes the token. Idempotent.
func (t *Token) Revoke() {
	if t.deletedAt == nil {
		now := time.Now().UTC()
		t.deletedAt = &now
	}
}

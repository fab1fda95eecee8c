package token

import (
	"context"
	"time"
)

// Context carries the transport context a token is presented from, used for
// audit and to bind browser tokens to their origin.
type Context struct {
	RemoteIP  string
	UserAgent string
	Type      Type
}

// Claims is what the token subsystem yields after verifying an encoded
// credential. The core relies on nothing else from the signing layer.
type Claims struct {
	TokenID   uint
	AccountID uint
	ActorID   uint
	Type      Type
	ExpiresAt time.Time
}

// Verifier verifies encoded credentials. Implemented by the auth
// infrastructure; the core treats the encoding as opaque.
type Verifier interface {
	VerifyToken(ctx context.Context, encoded string, tctx Context) (*Claims, error)
}

// Encoder renders a token record into its opaque wire form.
type Encoder interface {
	EncodeToken(t *Token) (string, error)
}

// Repository defines persistence operations for tokens.
type Repository interface {
	Create(ctx context.Context, t *Token) error
	GetByID(ctx context.Context, tokenID uint) (*Token, error)
	Update(ctx context.Context, t *Token) error

	// UseToken loads the token and rejects it when revoked or lapsed. The
	// lazy expires_at check here is the correctness boundary for token
	// expiry.
	UseToken(ctx context.Context, tokenID uint, now time.Time) (*Token, error)

	// DeleteExpiredBefore removes lapsed token rows in batches. Storage
	// hygiene only.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time, batch int) (int64, error)
}

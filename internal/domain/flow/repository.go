package flow

import (
	"context"
	"time"
)

// Repository defines persistence operations for flows.
type Repository interface {
	// Create is a pure insert, never an upsert: concurrent duplicates for
	// the same tuple are tolerated and deduplicated at query time by most
	// recent.
	Create(ctx context.Context, f *Flow) error
	GetByID(ctx context.Context, flowID uint) (*Flow, error)
	GetBySID(ctx context.Context, sid string) (*Flow, error)

	// ListLive returns non-expired flows for an account at the given
	// instant.
	ListLive(ctx context.Context, accountID uint, now time.Time) ([]*Flow, error)

	// ExpireAllFor marks every live flow matching the scope as expired in a
	// single statement and returns the affected flows so the caller can
	// broadcast per-flow revocation events after commit. Must run inside
	// the same transaction as the structural change that triggered it.
	ExpireAllFor(ctx context.Context, scope Scope, now time.Time) ([]*Flow, error)

	// DeleteExpiredBefore removes rows whose expiry passed before cutoff,
	// in batches. Storage hygiene only; the lazy expires_at check at read
	// time is the correctness boundary.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time, batch int) (int64, error)
}

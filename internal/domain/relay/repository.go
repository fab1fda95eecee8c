package relay

import "context"

// Repository defines persistence operations for relays.
type Repository interface {
	Create(ctx context.Context, r *Relay) error
	GetByID(ctx context.Context, relayID uint) (*Relay, error)
	GetBySID(ctx context.Context, sid string) (*Relay, error)
	Update(ctx context.Context, r *Relay) error

	// ListUsable returns the account's own relays plus the global fleet.
	ListUsable(ctx context.Context, accountID uint) ([]*Relay, error)
}

package feature

import "context"

// Repository persists feature flags.
type Repository interface {
	Get(ctx context.Context, accountID uint, key Key) (*Flag, error)
	Upsert(ctx context.Context, flag *Flag) error
	ListByAccount(ctx context.Context, accountID uint) ([]*Flag, error)
}

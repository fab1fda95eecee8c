package usecases

import "context"

// Transactor runs a function inside a database transaction. The shared db
// package provides the gorm-backed implementation; tests use a pass-through
// fake.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OnlineDirectory reports which gateways currently hold a live control
// session. Backed by the presence registry; answers may be momentarily
// stale, which is acceptable because a grant to an offline gateway simply
// never gets used.
type OnlineDirectory interface {
	OnlineGatewaySIDs(ctx context.Context, siteIDs []uint) (map[string]bool, error)
}

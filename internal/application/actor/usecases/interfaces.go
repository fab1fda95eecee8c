package usecases

import "context"

// Transactor runs a function inside a database transaction. Row locks taken
// within fn are held until fn returns.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

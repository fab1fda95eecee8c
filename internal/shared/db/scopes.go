package db

import (
	"time"

	"gorm.io/gorm"
)

// NotDeleted is a GORM scope that filters out soft-deleted records. Use when
// querying with Model().Where().Count() or raw Table() calls that do not
// apply soft delete filtering automatically.
func NotDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted_at IS NULL")
	}
}

// NotDeletedWithAlias filters out soft-deleted records on an aliased table.
func NotDeletedWithAlias(alias string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(alias + ".deleted_at IS NULL")
	}
}

// AccountScoped restricts a query to a single account. Every read in the
// broker is account-scoped; a row outside the caller's account is
// indistinguishable from a missing one.
func AccountScoped(accountID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("account_id = ?", accountID)
	}
}

// NotExpired filters rows whose expires_at is still in the future. This lazy
// check is the correctness boundary for flow and token expiry.
func NotExpired(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expires_at > ?", now)
	}
}

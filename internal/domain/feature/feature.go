// Package feature holds per-account feature flags. A flag is a plain
// (account, key, enabled) row; absence of a row means the default applies.
package feature

import (
	"fmt"
	"time"
)

// Key names a toggleable capability.
type Key string

const (
	KeySelfHostedRelays Key = "self_hosted_relays"
	KeyAPIClients       Key = "api_clients"
	KeyDynamicGroups    Key = "dynamic_groups"
	KeyGeoSelection     Key = "geo_selection"
)

// NewKey validates a feature key string.
func NewKey(s string) (Key, error) {
	k := Key(s)
	switch k {
	case KeySelfHostedRelays, KeyAPIClients, KeyDynamicGroups, KeyGeoSelection:
		return k, nil
	}
	return "", fmt.Errorf("unknown feature key: %s", s)
}

// Default reports whether the key is enabled when no row exists.
func (k Key) Default() bool {
	switch k {
	case KeyGeoSelection:
		return true
	default:
		return false
	}
}

func (k Key) String() string { return string(k) }

// Flag is one per-account feature toggle.
type Flag struct {
	id        uint
	accountID uint
	key       Key
	enabled   bool
	createdAt time.Time
	updatedAt time.Time
}

// NewFlag creates a flag row.
func NewFlag(accountID uint, key Key, enabled bool) (*Flag, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if key == "" {
		return nil, fmt.Errorf("feature key is required")
	}
	now := time.Now().UTC()
	return &Flag{
		accountID: accountID,
		key:       key,
		enabled:   enabled,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructFlag rebuilds a flag from persistence.
func ReconstructFlag(flagID, accountID uint, key Key, enabled bool, createdAt, updatedAt time.Time) (*Flag, error) {
	if flagID == 0 {
		return nil, fmt.Errorf("flag ID cannot be zero")
	}
	return &Flag{
		id:        flagID,
		accountID: accountID,
		key:       key,
		enabled:   enabled,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (f *Flag) ID() uint             { return f.id }
func (f *Flag) AccountID() uint      { return f.accountID }
func (f *Flag) Key() Key             { return f.key }
func (f *Flag) Enabled() bool        { return f.enabled }
func (f *Flag) CreatedAt() time.Time { return f.createdAt }
func (f *Flag) UpdatedAt() time.Time { return f.updatedAt }

// SetID assigns the database identity after the initial insert.
func (f *Flag) SetID(flagID uint) error {
	if f.id != 0 {
		return fmt.Errorf("flag ID already set")
	}
	f.id = flagID
	return nil
}

// SetEnabled flips the flag.
func (f *Flag) SetEnabled(enabled bool) {
	f.enabled = enabled
	f.updatedAt = time.Now().UTC()
}

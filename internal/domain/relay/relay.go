// Package relay contains the STUN/TURN relay entity. Relays carry a rotating
// stamp secret that gateways and clients pin to; the presence layer uses it
// to tell a transient reconnect apart from a genuine replacement.
package relay

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Relay is a STUN/TURN endpoint, either account-scoped or global
// (accountID == nil). Online status is derived from presence at read time.
type Relay struct {
	id              uint
	sid             string
	accountID       *uint
	name            string
	ipv4            string
	ipv6            string
	port            uint16
	stampSecretHash string
	deletedAt       *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// NewRelay creates a new relay. A nil accountID makes it part of the global
// managed fleet.
func NewRelay(accountID *uint, name, ipv4, ipv6 string, port uint16) (*Relay, error) {
	if name == "" {
		return nil, fmt.Errorf("relay name is required")
	}
	if ipv4 == "" && ipv6 == "" {
		return nil, fmt.Errorf("relay requires at least one address")
	}
	if port == 0 {
		return nil, fmt.Errorf("relay port is required")
	}

	now := time.Now().UTC()
	return &Relay{
		sid:       id.MustGenerateWithPrefix(id.PrefixRelay, id.DefaultLength),
		accountID: accountID,
		name:      name,
		ipv4:      ipv4,
		ipv6:      ipv6,
		port:      port,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructRelay rebuilds a relay from persistence.
func ReconstructRelay(
	relayID uint,
	sid string,
	accountID *uint,
	name, ipv4, ipv6 string,
	port uint16,
	stampSecretHash string,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Relay, error) {
	if relayID == 0 {
		return nil, fmt.Errorf("relay ID cannot be zero")
	}
	return &Relay{
		id:              relayID,
		sid:             sid,
		accountID:       accountID,
		name:            name,
		ipv4:            ipv4,
		ipv6:            ipv6,
		port:            port,
		stampSecretHash: stampSecretHash,
		deletedAt:       deletedAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (r *Relay) ID() uint                { return r.id }
func (r *Relay) SID() string             { return r.sid }
func (r *Relay) AccountID() *uint        { return r.accountID }
func (r *Relay) Name() string            { return r.name }
func (r *Relay) IPv4() string            { return r.ipv4 }
func (r *Relay) IPv6() string            { return r.ipv6 }
func (r *Relay) Port() uint16            { return r.port }
func (r *Relay) StampSecretHash() string { return r.stampSecretHash }

func (r *Relay) DeletedAt() *time.Time { return r.deletedAt }
func (r *Relay) CreatedAt() time.Time  { return r.createdAt }
func (r *Relay) UpdatedAt() time.Time  { return r.updatedAt }

// SetID assigns the database identity after the initial insert.
func (r *Relay) SetID(relayID uint) error {
	if r.id != 0 {
		return fmt.Errorf("relay ID already set")
	}
	r.id = relayID
	return nil
}

// SetStampSecretHash stores the hashed form of a freshly rotated stamp
// secret. The plaintext never persists; connected peers learn the rotation
// through the presence cutover.
func (r *Relay) SetStampSecretHash(hash string) {
	r.stampSecretHash = hash
	r.updatedAt = time.Now().UTC()
}

// IsGlobal reports whether the relay belongs to the managed fleet.
func (r *Relay) IsGlobal() bool { return r.accountID == nil }

// IsDeleted reports whether the relay is soft-deleted.
func (r *Relay) IsDeleted() bool { return r.deletedAt != nil }

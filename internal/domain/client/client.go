// Package client contains the client device aggregate: a device operated by
// an actor from which tunneled connections originate.
package client

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Client is a device belonging to an actor. Verification is a posture signal
// consumed by policy conditions; online status is never stored here, it is
// derived from the presence registry at read time.
type Client struct {
	id               uint
	sid              string
	accountID        uint
	actorID          uint
	name             string
	publicKey        string
	verifiedAt       *time.Time
	lastSeenRemoteIP string
	lastSeenAgent    string
	lastSeenVersion  string
	deletedAt        *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewClient creates a new client device.
func NewClient(accountID, actorID uint, name, publicKey string) (*Client, error) {
	if accountID == 0 || actorID == 0 {
		return nil, fmt.Errorf("account and actor IDs are required")
	}
	if name == "" {
		return nil, fmt.Errorf("client name is required")
	}

	now := time.Now().UTC()
	return &Client{
		sid:       id.MustGenerateWithPrefix(id.PrefixClient, id.DefaultLength),
		accountID: accountID,
		actorID:   actorID,
		name:      name,
		publicKey: publicKey,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructClient rebuilds a client from persistence.
func ReconstructClient(
	clientID uint,
	sid string,
	accountID, actorID uint,
	name, publicKey string,
	verifiedAt *time.Time,
	lastSeenRemoteIP, lastSeenAgent, lastSeenVersion string,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Client, error) {
	if clientID == 0 {
		return nil, fmt.Errorf("client ID cannot be zero")
	}
	return &Client{
		id:               clientID,
		sid:              sid,
		accountID:        accountID,
		actorID:          actorID,
		name:             name,
		publicKey:        publicKey,
		verifiedAt:       verifiedAt,
		lastSeenRemoteIP: lastSeenRemoteIP,
		lastSeenAgent:    lastSeenAgent,
		lastSeenVersion:  lastSeenVersion,
		deletedAt:        deletedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

func (c *Client) ID() uint                 { return c.id }
func (c *Client) SID() string              { return c.sid }
func (c *Client) AccountID() uint          { return c.accountID }
func (c *Client) ActorID() uint            { return c.actorID }
func (c *Client) Name() string             { return c.name }
func (c *Client) PublicKey() string        { return c.publicKey }
func (c *Client) VerifiedAt() *time.Time   { return c.verifiedAt }
func (c *Client) LastSeenRemoteIP() string { return c.lastSeenRemoteIP }
func (c *Client) LastSeenAgent() string    { return c.lastSeenAgent }
func (c *Client) LastSeenVersion() string  { return c.lastSeenVersion }
func (c *Client) DeletedAt() *time.Time    { return c.deletedAt }
func (c *Client) CreatedAt() time.Time     { return c.createdAt }
func (c *Client) UpdatedAt() time.Time     { return c.updatedAt }

// SetID assigns the database identity after the initial insert.
func (c *Client) SetID(clientID uint) error {
	if c.id != 0 {
		return fmt.Errorf("client ID already set")
	}
	c.id = clientID
	return nil
}

// IsVerified reports whether an administrator vouched for this device.
func (c *Client) IsVerified() bool { return c.verifiedAt != nil }

// IsDeleted reports whether the client is soft-deleted.
func (c *Client) IsDeleted() bool { return c.deletedAt != nil }

// Verify marks the device as verified. Idempotent.
func (c *Client) Verify() {
	if c.verifiedAt == nil {
		now := time.Now().UTC()
		c.verifiedAt = &now
		c.updatedAt = now
	}
}

// Unverify revokes device verification. Idempotent.
func (c *Client) Unverify() {
	if c.verifiedAt != nil {
		c.verifiedAt = nil
		c.updatedAt = time.Now().UTC()
	}
}

// Seen records connection metadata for audit.
func (c *Client) Seen(remoteIP, userAgent, version string) {
	c.lastSeenRemoteIP = remoteIP
	c.lastSeenAgent = userAgent
	c.lastSeenVersion = version
	c.updatedAt = time.Now().UTC()
}

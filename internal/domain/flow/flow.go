// Package flow contains the flow aggregate: a materialized, time-bounded
// authorization linking client, gateway, resource, policy, membership, and
// token. Flows are never mutated after creation; they only expire.
package flow

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Flow is one authorization decision made durable. Its expiry is always at
// or before the authorizing token's expiry. Concurrent duplicate flows for
// the same tuple are acceptable; reads deduplicate by most recent.
type Flow struct {
	id              uint
	sid             string
	accountID       uint
	clientID        uint
	gatewayID       uint
	resourceID      uint
	policyID        uint
	membershipID    uint
	tokenID         uint
	clientRemoteIP  string
	gatewayRemoteIP string
	clientUserAgent string
	expiresAt       time.Time
	expiredAt       *time.Time
	createdAt       time.Time
}

// NewFlow creates a flow record. All referenced IDs are required; expiry must
// be in the future relative to the caller's clock when persisted.
func NewFlow(
	accountID, clientID, gatewayID, resourceID, policyID, membershipID, tokenID uint,
	clientRemoteIP, gatewayRemoteIP, clientUserAgent string,
	expiresAt time.Time,
) (*Flow, error) {
	if accountID == 0 || clientID == 0 || gatewayID == 0 || resourceID == 0 ||
		policyID == 0 || membershipID == 0 || tokenID == 0 {
		return nil, fmt.Errorf("flow requires account, client, gateway, resource, policy, membership, and token IDs")
	}
	if expiresAt.IsZero() {
		return nil, fmt.Errorf("flow expiry is required")
	}

	return &Flow{
		sid:             id.MustGenerateWithPrefix(id.PrefixFlow, id.DefaultLength),
		accountID:       accountID,
		clientID:        clientID,
		gatewayID:       gatewayID,
		resourceID:      resourceID,
		policyID:        policyID,
		membershipID:    membershipID,
		tokenID:         tokenID,
		clientRemoteIP:  clientRemoteIP,
		gatewayRemoteIP: gatewayRemoteIP,
		clientUserAgent: clientUserAgent,
		expiresAt:       expiresAt.UTC(),
		createdAt:       time.Now().UTC(),
	}, nil
}

// ReconstructFlow rebuilds a flow from persistence.
func ReconstructFlow(
	flowID uint,
	sid string,
	accountID, clientID, gatewayID, resourceID, policyID, membershipID, tokenID uint,
	clientRemoteIP, gatewayRemoteIP, clientUserAgent string,
	expiresAt time.Time,
	expiredAt *time.Time,
	createdAt time.Time,
) (*Flow, error) {
	if flowID == 0 {
		return nil, fmt.Errorf("flow ID cannot be zero")
	}
	return &Flow{
		id:              flowID,
		sid:             sid,
		accountID:       accountID,
		clientID:        clientID,
		gatewayID:       gatewayID,
		resourceID:      resourceID,
		policyID:        policyID,
		membershipID:    membershipID,
		tokenID:         tokenID,
		clientRemoteIP:  clientRemoteIP,
		gatewayRemoteIP: gatewayRemoteIP,
		clientUserAgent: clientUserAgent,
		expiresAt:       expiresAt,
		expiredAt:       expiredAt,
		createdAt:       createdAt,
	}, nil
}

func (f *Flow) ID() uint                { return f.id }
func (f *Flow) SID() string             { return f.sid }
func (f *Flow) AccountID() uint         { return f.accountID }
func (f *Flow) ClientID() uint          { return f.clientID }
func (f *Flow) GatewayID() uint         { return f.gatewayID }
func (f *Flow) ResourceID() uint        { return f.resourceID }
func (f *Flow) PolicyID() uint          { return f.policyID }
func (f *Flow) MembershipID() uint      { return f.membershipID }
func (f *Flow) TokenID() uint           { return f.tokenID }
func (f *Flow) ClientRemoteIP() string  { return f.clientRemoteIP }
func (f *Flow) GatewayRemoteIP() string { return f.gatewayRemoteIP }
func (f *Flow) ClientUserAgent() string { return f.clientUserAgent }
func (f *Flow) ExpiresAt() time.Time    { return f.expiresAt }
func (f *Flow) ExpiredAt() *time.Time   { return f.expiredAt }
func (f *Flow) CreatedAt() time.Time    { return f.createdAt }

// SetID assigns the database identity after the initial insert.
func (f *Flow) SetID(flowID uint) error {
	if f.id != 0 {
		return fmt.Errorf("flow ID already set")
	}
	f.id = flowID
	return nil
}

// IsLive reports whether the flow still authorizes traffic at the given
// instant. This lazy check is the correctness boundary; bulk sweeps are
// storage hygiene only.
func (f *Flow) IsLive(now time.Time) bool {
	return f.expiredAt == nil && f.expiresAt.After(now)
}

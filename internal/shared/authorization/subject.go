// Package authorization defines the authenticated subject and the capability
// checks every core operation performs before touching state.
package authorization

import (
	"time"

	"github.com/cordon-zt/cordon/internal/domain/token"
)

// Permission names a capability a subject may hold.
type Permission string

const (
	PermissionCreateFlows     Permission = "flows:create"
	PermissionViewFlows       Permission = "flows:view"
	PermissionManagePolicies  Permission = "policies:manage"
	PermissionManageActors    Permission = "actors:manage"
	PermissionManageGroups    Permission = "groups:manage"
	PermissionManageResources Permission = "resources:manage"
	PermissionManageGateways  Permission = "gateways:manage"
	PermissionConnectGateway  Permission = "gateways:connect"
	PermissionConnectRelay    Permission = "relays:connect"
	PermissionManageFeatures  Permission = "features:manage"
)

// Subject is an authenticated actor plus the token context it presented.
// ExpiresAt is the session's hard deadline, carried here so flow expiry can
// be capped without re-reading the token.
type Subject struct {
	AccountID uint
	ActorID   uint
	TokenID   uint
	ExpiresAt time.Time
	Context   token.Context
}

// Checker answers capability questions. The casbin-backed implementation
// lives in infrastructure; tests use a stub.
type Checker interface {
	// EnsureHasPermission returns an unauthorized error when the subject
	// lacks the permission. Never retried, surfaced as-is to the caller.
	EnsureHasPermission(subject Subject, permission Permission) error
}

package permission

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/token"
)

// seedDefaults installs the built-in role policies. Idempotent: AddPolicy
// is a no-op for rows that already exist.
func (e *Enforcer) seedDefaults() error {
	admin := actor.TypeAccountAdminUser.String()
	user := actor.TypeAccountUser.String()
	service := actor.TypeServiceAccount.String()
	apiClient := actor.TypeAPIClient.String()

	policies := [][]string{
		// Admins manage everything in their account.
		{admin, "flows", "create"},
		{admin, "flows", "view"},
		{admin, "policies", "manage"},
		{admin, "actors", "manage"},
		{admin, "groups", "manage"},
		{admin, "resources", "manage"},
		{admin, "gateways", "manage"},
		{admin, "features", "manage"},

		// Regular users authorize their own traffic.
		{user, "flows", "create"},
		{user, "flows", "view"},

		// Service accounts and API clients hold flow rights only; structural
		// changes stay with human admins.
		{service, "flows", "create"},
		{apiClient, "flows", "create"},
		{apiClient, "flows", "view"},

		// Infrastructure credentials connect their own kind.
		{token.TypeGatewayGroup.String(), "gateways", "connect"},
		{token.TypeRelayGroup.String(), "relays", "connect"},
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range policies {
		if _, err := e.enforcer.AddPolicy(p); err != nil {
			return fmt.Errorf("failed to seed policy [%s %s %s]: %w", p[0], p[1], p[2], err)
		}
	}
	if err := e.enforcer.SavePolicy(); err != nil {
		return fmt.Errorf("failed to save seeded policies: %w", err)
	}
	return nil
}

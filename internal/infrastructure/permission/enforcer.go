package permission

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

var _ authorization.Checker = (*Enforcer)(nil)

// Enforcer is the casbin-backed capability checker. Policies map a role to
// (resource, action) pairs; the subject's role is its token type for
// machine credentials and its actor type for user-facing credentials.
type Enforcer struct {
	enforcer *casbin.Enforcer
	actors   actor.Repository
	mu       sync.RWMutex
	logger   logger.Interface
}

// NewEnforcer creates the enforcer, loading policies through the gorm
// adapter and seeding the built-in role policies when absent.
func NewEnforcer(db *gorm.DB, modelPath string, actors actor.Repository, log logger.Interface) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(modelPath, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	e := &Enforcer{
		enforcer: enforcer,
		actors:   actors,
		logger:   log.Named("permission"),
	}
	if err := e.seedDefaults(); err != nil {
		return nil, err
	}
	return e, nil
}

// EnsureHasPermission returns an unauthorized error when the subject lacks
// the permission.
func (e *Enforcer) EnsureHasPermission(subject authorization.Subject, permission authorization.Permission) error {
	resource, action, err := splitPermission(permission)
	if err != nil {
		return err
	}

	role, err := e.roleFor(subject)
	if err != nil {
		return err
	}

	e.mu.RLock()
	allowed, err := e.enforcer.Enforce(role, resource, action)
	e.mu.RUnlock()
	if err != nil {
		e.logger.Errorw("permission check failed",
			"role", role,
			"resource", resource,
			"action", action,
			"error", err,
		)
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !allowed {
		return errors.NewUnauthorizedError(fmt.Sprintf("missing permission %s", permission))
	}
	return nil
}

// roleFor resolves the casbin role. Gateway and relay group tokens carry
// their role in the token type; everything else takes the actor's type.
func (e *Enforcer) roleFor(subject authorization.Subject) (string, error) {
	switch subject.Context.Type {
	case token.TypeGatewayGroup, token.TypeRelayGroup:
		return subject.Context.Type.String(), nil
	}

	a, err := e.actors.GetByID(context.Background(), subject.ActorID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve subject actor: %w", err)
	}
	if a == nil || !a.IsActive() {
		return "", errors.NewUnauthorizedError("actor is not active")
	}
	return a.Type().String(), nil
}

// AddPolicy grants (role, resource, action) and persists the policy set.
func (e *Enforcer) AddPolicy(role, resource, action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(role, resource, action); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return e.enforcer.SavePolicy()
}

// RemovePolicy revokes (role, resource, action) and persists the policy set.
func (e *Enforcer) RemovePolicy(role, resource, action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.RemovePolicy(role, resource, action); err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return e.enforcer.SavePolicy()
}

func splitPermission(permission authorization.Permission) (resource, action string, err error) {
	parts := strings.SplitN(string(permission), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed permission: %s", permission)
	}
	return parts[0], parts[1], nil
}

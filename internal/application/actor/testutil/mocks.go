// Package testutil provides mock implementations for testing the actor
// application layer.
package testutil

import (
	"context"
	"sync"

	"github.com/cordon-zt/cordon/internal/domain/actor"
)

// MockActorRepository is a mock implementation of actor.Repository.
type MockActorRepository struct {
	mu     sync.RWMutex
	actors map[uint]*actor.Actor
	nextID uint
}

// NewMockActorRepository creates a new mock actor repository.
func NewMockActorRepository() *MockActorRepository {
	return &MockActorRepository{actors: make(map[uint]*actor.Actor)}
}

// AddActor seeds an actor, assigning an ID when unset.
func (m *MockActorRepository) AddActor(a *actor.Actor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID() == 0 {
		m.nextID++
		_ = a.SetID(m.nextID)
	}
	m.actors[a.ID()] = a
}

// Create inserts an actor.
func (m *MockActorRepository) Create(ctx context.Context, a *actor.Actor) error {
	m.AddActor(a)
	return nil
}

// GetByID retrieves an actor by ID.
func (m *MockActorRepository) GetByID(ctx context.Context, actorID uint) (*actor.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.actors[actorID], nil
}

// GetBySID retrieves an actor by short ID.
func (m *MockActorRepository) GetBySID(ctx context.Context, sid string) (*actor.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.actors {
		if a.SID() == sid {
			return a, nil
		}
	}
	return nil, nil
}

// Update replaces a stored actor.
func (m *MockActorRepository) Update(ctx context.Context, a *actor.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[a.ID()] = a
	return nil
}

// CountOtherActiveAdmins counts enabled, non-deleted admins other than
// excludeActorID. Serialization across concurrent transactions comes from
// the transactor fake, mirroring the row locks the real repository takes.
func (m *MockActorRepository) CountOtherActiveAdmins(ctx context.Context, accountID, excludeActorID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, a := range m.actors {
		if a.AccountID() == accountID && a.ID() != excludeActorID && a.IsAdmin() && a.IsActive() {
			count++
		}
	}
	return count, nil
}

// ListActiveByAccount lists enabled, non-deleted actors.
func (m *MockActorRepository) ListActiveByAccount(ctx context.Context, accountID uint) ([]*actor.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*actor.Actor
	for _, a := range m.actors {
		if a.AccountID() == accountID && a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

// MockGroupRepository is a mock implementation of actor.GroupRepository.
type MockGroupRepository struct {
	mu     sync.RWMutex
	groups map[uint]*actor.Group
	nextID uint

	lockCalls int
}

// NewMockGroupRepository creates a new mock group repository.
func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{groups: make(map[uint]*actor.Group)}
}

// AddGroup seeds a group, assigning an ID when unset.
func (m *MockGroupRepository) AddGroup(g *actor.Group) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID() == 0 {
		m.nextID++
		_ = g.SetID(m.nextID)
	}
	m.groups[g.ID()] = g
}

// Create inserts a group.
func (m *MockGroupRepository) Create(ctx context.Context, g *actor.Group) error {
	m.AddGroup(g)
	return nil
}

// GetByID retrieves a group by ID.
func (m *MockGroupRepository) GetByID(ctx context.Context, groupID uint) (*actor.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.groups[groupID], nil
}

// GetBySID retrieves a group by short ID.
func (m *MockGroupRepository) GetBySID(ctx context.Context, sid string) (*actor.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.groups {
		if g.SID() == sid {
			return g, nil
		}
	}
	return nil, nil
}

// Update replaces a stored group.
func (m *MockGroupRepository) Update(ctx context.Context, g *actor.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID()] = g
	return nil
}

// LockByID retrieves a group, recording the lock request.
func (m *MockGroupRepository) LockByID(ctx context.Context, groupID uint) (*actor.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockCalls++
	return m.groups[groupID], nil
}

// LockCalls returns how many times LockByID was invoked.
func (m *MockGroupRepository) LockCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lockCalls
}

// LockingTransactor emulates transactions whose row locks serialize: only
// one transaction body runs at a time, the way FOR UPDATE reads block a
// concurrent writer until commit.
type LockingTransactor struct {
	mu sync.Mutex
}

// NewLockingTransactor creates a serializing transactor.
func NewLockingTransactor() *LockingTransactor {
	return &LockingTransactor{}
}

// RunInTransaction holds the lock for the duration of fn.
func (t *LockingTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

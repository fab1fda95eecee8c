package usecases

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/cordon-zt/cordon/internal/application/actor/testutil"
	flowtestutil "github.com/cordon-zt/cordon/internal/application/flow/testutil"
	flowusecases "github.com/cordon-zt/cordon/internal/application/flow/usecases"
	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

const testAccountID = uint(1)

// actorFixture wires the collaborators for actor and group usecases.
type actorFixture struct {
	checker     *flowtestutil.MockChecker
	actors      *testutil.MockActorRepository
	groups      *testutil.MockGroupRepository
	memberships *flowtestutil.MockMembershipRepository
	flows       *flowtestutil.MockFlowRepository
	policies    *flowtestutil.MockPolicyRepository
	bus         *flowtestutil.MockBus
	txMgr       *testutil.LockingTransactor

	subject authorization.Subject
}

func newActorFixture(t *testing.T) *actorFixture {
	t.Helper()
	f := &actorFixture{
		checker:     flowtestutil.NewMockChecker(),
		actors:      testutil.NewMockActorRepository(),
		groups:      testutil.NewMockGroupRepository(),
		memberships: flowtestutil.NewMockMembershipRepository(),
		flows:       flowtestutil.NewMockFlowRepository(),
		policies:    flowtestutil.NewMockPolicyRepository(),
		bus:         flowtestutil.NewMockBus(),
		txMgr:       testutil.NewLockingTransactor(),
	}
	f.subject = authorization.Subject{
		AccountID: testAccountID,
		ActorID:   1,
		TokenID:   1,
		ExpiresAt: time.Now().UTC().Add(12 * time.Hour),
		Context: token.Context{
			RemoteIP:  "203.0.113.5",
			UserAgent: "cordon-admin/1.0",
			Type:      token.TypeBrowser,
		},
	}
	return f
}

func (f *actorFixture) expirer() *flowusecases.ExpireFlowsUseCase {
	return flowusecases.NewExpireFlowsUseCase(f.flows, f.policies, f.txMgr, f.bus, logger.NewNopLogger())
}

func (f *actorFixture) disableUseCase() *DisableActorUseCase {
	return NewDisableActorUseCase(f.checker, f.actors, f.expirer(), f.txMgr, logger.NewNopLogger())
}

func (f *actorFixture) deleteUseCase() *DeleteActorUseCase {
	return NewDeleteActorUseCase(f.checker, f.actors, f.expirer(), f.txMgr, logger.NewNopLogger())
}

func (f *actorFixture) addMemberUseCase() *AddGroupMemberUseCase {
	return NewAddGroupMemberUseCase(f.checker, f.actors, f.groups, f.memberships, f.bus, logger.NewNopLogger())
}

func (f *actorFixture) removeMemberUseCase() *RemoveGroupMemberUseCase {
	return NewRemoveGroupMemberUseCase(
		f.checker, f.actors, f.groups, f.memberships, f.expirer(), f.txMgr, f.bus, logger.NewNopLogger(),
	)
}

func (f *actorFixture) recomputeUseCase() *RecomputeGroupUseCase {
	return NewRecomputeGroupUseCase(
		f.groups, f.memberships, f.expirer(), f.txMgr, f.bus, logger.NewNopLogger(),
	)
}

func addActor(t *testing.T, f *actorFixture, actorType actor.Type, name string) *actor.Actor {
	t.Helper()
	a, err := actor.NewActor(testAccountID, actorType, name)
	if err != nil {
		t.Fatalf("NewActor() error = %v", err)
	}
	f.actors.AddActor(a)
	return a
}

func addGroup(t *testing.T, f *actorFixture, groupType actor.GroupType, name string) *actor.Group {
	t.Helper()
	g, err := actor.NewGroup(testAccountID, name, groupType)
	if err != nil {
		t.Fatalf("NewGroup() error = %v", err)
	}
	f.groups.AddGroup(g)
	return g
}

func addMembership(t *testing.T, f *actorFixture, actorID, groupID uint) *actor.Membership {
	t.Helper()
	m, err := actor.NewMembership(testAccountID, actorID, groupID)
	if err != nil {
		t.Fatalf("NewMembership() error = %v", err)
	}
	f.memberships.AddMembership(m)
	return m
}

// seedActorFlow creates a live flow tied to the actor through a client.
func seedActorFlow(t *testing.T, f *actorFixture, actorID, clientID, membershipID uint) *flow.Flow {
	t.Helper()
	fl, err := flow.NewFlow(
		testAccountID, clientID, 1, 1, 1, membershipID, 1,
		"203.0.113.5", "198.51.100.7", "cordon-client/1.0",
		time.Now().UTC().Add(time.Hour),
	)
	if err != nil {
		t.Fatalf("NewFlow() error = %v", err)
	}
	if err := f.flows.Create(context.Background(), fl); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	f.flows.ActorOf[clientID] = actorID
	return fl
}

func conflictReason(t *testing.T, err error) string {
	t.Helper()
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Type != errors.ErrorTypeConflict {
		t.Fatalf("error type = %v, want conflict", appErr.Type)
	}
	return appErr.Details
}

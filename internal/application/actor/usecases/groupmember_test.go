package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/errors"
)

// TestAddGroupMember_Success verifies the edge is created and announced on
// the account topic.
func TestAddGroupMember_Success(t *testing.T) {
	f := newActorFixture(t)
	user := addActor(t, f, actor.TypeAccountUser, "user")
	g := addGroup(t, f, actor.GroupTypeStatic, "engineering")
	uc := f.addMemberUseCase()

	result, err := uc.Execute(context.Background(), AddGroupMemberCommand{
		Subject:  f.subject,
		GroupSID: g.SID(),
		ActorSID: user.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.MembershipSID == "" {
		t.Error("result.MembershipSID is empty")
	}

	membership, _ := f.memberships.GetByActorAndGroup(context.Background(), user.ID(), g.ID())
	if membership == nil {
		t.Fatal("membership was not created")
	}

	events := f.bus.PublishedOfKind(pubsub.KindCreateMembership)
	if len(events) != 1 {
		t.Fatalf("create_membership publishes = %d, want 1", len(events))
	}
	if events[0].Topic != pubsub.AccountTopic(testAccountID) {
		t.Errorf("topic = %v, want %v", events[0].Topic, pubsub.AccountTopic(testAccountID))
	}
}

// TestAddGroupMember_ManagedGroupRefused verifies system-owned groups reject
// direct edits.
func TestAddGroupMember_ManagedGroupRefused(t *testing.T) {
	f := newActorFixture(t)
	user := addActor(t, f, actor.TypeAccountUser, "user")
	g := addGroup(t, f, actor.GroupTypeManaged, "everyone")
	uc := f.addMemberUseCase()

	_, err := uc.Execute(context.Background(), AddGroupMemberCommand{
		Subject:  f.subject,
		GroupSID: g.SID(),
		ActorSID: user.SID(),
	})
	if got := conflictReason(t, err); got != errors.ReasonManagedGroup {
		t.Errorf("conflict reason = %v, want %v", got, errors.ReasonManagedGroup)
	}
}

// TestAddGroupMember_DisabledActorRefused verifies a disabled actor cannot
// gain new access paths.
func TestAddGroupMember_DisabledActorRefused(t *testing.T) {
	f := newActorFixture(t)
	user := addActor(t, f, actor.TypeAccountUser, "user")
	user.Disable()
	g := addGroup(t, f, actor.GroupTypeStatic, "engineering")
	uc := f.addMemberUseCase()

	if _, err := uc.Execute(context.Background(), AddGroupMemberCommand{
		Subject:  f.subject,
		GroupSID: g.SID(),
		ActorSID: user.SID(),
	}); err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
}

// TestAddGroupMember_DuplicateRefused verifies the unique edge constraint
// surfaces as a conflict.
func TestAddGroupMember_DuplicateRefused(t *testing.T) {
	f := newActorFixture(t)
	user := addActor(t, f, actor.TypeAccountUser, "user")
	g := addGroup(t, f, actor.GroupTypeStatic, "engineering")
	f.memberships.SetCreateError(errors.NewConflictError("actor is already a member of the group"))
	uc := f.addMemberUseCase()

	_, err := uc.Execute(context.Background(), AddGroupMemberCommand{
		Subject:  f.subject,
		GroupSID: g.SID(),
		ActorSID: user.SID(),
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
}

// TestRemoveGroupMember_ExpiresFlows verifies leaving a group revokes the
// flows authorized through that membership, atomically with the removal.
func TestRemoveGroupMember_ExpiresFlows(t *testing.T) {
	f := newActorFixture(t)
	user := addActor(t, f, actor.TypeAccountUser, "user")
	g := addGroup(t, f, actor.GroupTypeStatic, "engineering")
	membership := addMembership(t, f, user.ID(), g.ID())
	fl := seedActorFlow(t, f, user.ID(), 7, membership.ID())
	uc := f.removeMemberUseCase()

	result, err := uc.Execute(context.Background(), RemoveGroupMemberCommand{
		Subject:  f.subject,
		GroupSID: g.SID(),
		ActorSID: user.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.FlowsExpired != 1 {
		t.Errorf("FlowsExpired = %d, want 1", result.FlowsExpired)
	}

	gone, _ := f.memberships.GetByActorAndGroup(context.Background(), user.ID(), g.ID())
	if gone != nil {
		t.Error("membership should be deleted")
	}
	stored, _ := f.flows.GetByID(context.Background(), fl.ID())
	if stored.ExpiredAt() == nil {
		t.Error("membership's flow should be expired")
	}
	if got := len(f.bus.PublishedOfKind(pubsub.KindDeleteMembership)); got != 1 {
		t.Errorf("delete_membership publishes = %d, want 1", got)
	}
	if got := len(f.bus.PublishedOfKind(pubsub.KindRejectAccess)); got != 1 {
		t.Errorf("reject_access publishes = %d, want 1", got)
	}
}

// TestRemoveGroupMember_NotAMember verifies removing a non-member fails
// without publishing anything.
func TestRemoveGroupMember_NotAMember(t *testing.T) {
	f := newActorFixture(t)
	user := addActor(t, f, actor.TypeAccountUser, "user")
	g := addGroup(t, f, actor.GroupTypeStatic, "engineering")
	uc := f.removeMemberUseCase()

	if _, err := uc.Execute(context.Background(), RemoveGroupMemberCommand{
		Subject:  f.subject,
		GroupSID: g.SID(),
		ActorSID: user.SID(),
	}); err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if got := len(f.bus.Published()); got != 0 {
		t.Errorf("published %d messages, want 0", got)
	}
}

// TestRemoveGroupMember_SyncedGroupRefused verifies provider-synced groups
// reject direct edits.
func TestRemoveGroupMember_SyncedGroupRefused(t *testing.T) {
	f := newActorFixture(t)
	user := addActor(t, f, actor.TypeAccountUser, "user")
	providerID := uint(42)
	now := time.Now().UTC()
	g, err := actor.ReconstructGroup(
		99, "ag_synced", testAccountID, "synced", actor.GroupTypeStatic,
		&providerID, nil, now, now,
	)
	if err != nil {
		t.Fatalf("ReconstructGroup() error = %v", err)
	}
	f.groups.AddGroup(g)
	uc := f.removeMemberUseCase()

	_, err = uc.Execute(context.Background(), RemoveGroupMemberCommand{
		Subject:  f.subject,
		GroupSID: g.SID(),
		ActorSID: user.SID(),
	})
	if got := conflictReason(t, err); got != errors.ReasonSyncedGroup {
		t.Errorf("conflict reason = %v, want %v", got, errors.ReasonSyncedGroup)
	}
}

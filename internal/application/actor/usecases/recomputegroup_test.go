package usecases

import (
	"context"
	"testing"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
)

// TestRecomputeGroup_AppliesDiff verifies the desired set is applied as an
// insert/delete diff under the group lock, expiring flows of removed
// memberships.
func TestRecomputeGroup_AppliesDiff(t *testing.T) {
	f := newActorFixture(t)
	g := addGroup(t, f, actor.GroupTypeDynamic, "on-call")
	staying := addMembership(t, f, 1, g.ID())
	leaving := addMembership(t, f, 2, g.ID())
	fl := seedActorFlow(t, f, 2, 7, leaving.ID())
	uc := f.recomputeUseCase()

	result, err := uc.Execute(context.Background(), RecomputeGroupCommand{
		AccountID:       testAccountID,
		GroupID:         g.ID(),
		DesiredActorIDs: []uint{1, 3},
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.Added != 1 {
		t.Errorf("Added = %d, want 1", result.Added)
	}
	if result.Removed != 1 {
		t.Errorf("Removed = %d, want 1", result.Removed)
	}
	if result.FlowsExpired != 1 {
		t.Errorf("FlowsExpired = %d, want 1", result.FlowsExpired)
	}
	if f.groups.LockCalls() != 1 {
		t.Errorf("LockCalls = %d, want 1", f.groups.LockCalls())
	}

	if m, _ := f.memberships.GetByActorAndGroup(context.Background(), 1, g.ID()); m == nil || m.ID() != staying.ID() {
		t.Error("existing membership should be kept, not recreated")
	}
	if m, _ := f.memberships.GetByActorAndGroup(context.Background(), 3, g.ID()); m == nil {
		t.Error("desired membership should be created")
	}
	if m, _ := f.memberships.GetByActorAndGroup(context.Background(), 2, g.ID()); m != nil {
		t.Error("stale membership should be deleted")
	}

	stored, _ := f.flows.GetByID(context.Background(), fl.ID())
	if stored.ExpiredAt() == nil {
		t.Error("removed membership's flow should be expired")
	}
	if got := len(f.bus.PublishedOfKind(pubsub.KindCreateMembership)); got != 1 {
		t.Errorf("create_membership publishes = %d, want 1", got)
	}
	if got := len(f.bus.PublishedOfKind(pubsub.KindDeleteMembership)); got != 1 {
		t.Errorf("delete_membership publishes = %d, want 1", got)
	}
}

// TestRecomputeGroup_NoChange verifies a recompute matching the current set
// publishes nothing.
func TestRecomputeGroup_NoChange(t *testing.T) {
	f := newActorFixture(t)
	g := addGroup(t, f, actor.GroupTypeDynamic, "on-call")
	addMembership(t, f, 1, g.ID())
	uc := f.recomputeUseCase()

	result, err := uc.Execute(context.Background(), RecomputeGroupCommand{
		AccountID:       testAccountID,
		GroupID:         g.ID(),
		DesiredActorIDs: []uint{1},
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.Added != 0 || result.Removed != 0 {
		t.Errorf("diff = +%d/-%d, want +0/-0", result.Added, result.Removed)
	}
	if got := len(f.bus.Published()); got != 0 {
		t.Errorf("published %d messages, want 0", got)
	}
}

// TestRecomputeGroup_StaticGroupRefused verifies only dynamic or synced
// groups are recomputed.
func TestRecomputeGroup_StaticGroupRefused(t *testing.T) {
	f := newActorFixture(t)
	g := addGroup(t, f, actor.GroupTypeStatic, "engineering")
	uc := f.recomputeUseCase()

	if _, err := uc.Execute(context.Background(), RecomputeGroupCommand{
		AccountID:       testAccountID,
		GroupID:         g.ID(),
		DesiredActorIDs: []uint{1},
	}); err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
}

// TestRecomputeGroup_EmptyDesiredSetClearsGroup verifies an empty desired
// set removes every member.
func TestRecomputeGroup_EmptyDesiredSetClearsGroup(t *testing.T) {
	f := newActorFixture(t)
	g := addGroup(t, f, actor.GroupTypeDynamic, "on-call")
	addMembership(t, f, 1, g.ID())
	addMembership(t, f, 2, g.ID())
	uc := f.recomputeUseCase()

	result, err := uc.Execute(context.Background(), RecomputeGroupCommand{
		AccountID: testAccountID,
		GroupID:   g.ID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.Removed != 2 {
		t.Errorf("Removed = %d, want 2", result.Removed)
	}
	members, _ := f.memberships.ListByGroup(context.Background(), g.ID())
	if len(members) != 0 {
		t.Errorf("remaining members = %d, want 0", len(members))
	}
}

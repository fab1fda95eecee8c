package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
)

// TestExpireFlows_ByClient verifies only flows referencing the scoped entity
// are revoked and both sides of each flow are notified.
func TestExpireFlows_ByClient(t *testing.T) {
	f := newFlowFixture(t)
	target := seedFlow(t, f, time.Now().UTC().Add(time.Hour))

	other, err := flow.NewFlow(
		testAccountID, f.client.ID()+100, f.gateway.ID(), f.resource.ID(),
		f.policy.ID(), f.membership.ID(), f.subject.TokenID,
		"203.0.113.9", "198.51.100.7", "cordon-client/1.0",
		time.Now().UTC().Add(time.Hour),
	)
	if err != nil {
		t.Fatalf("NewFlow() error = %v", err)
	}
	if err := f.flows.Create(context.Background(), other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	uc := f.expireUseCase()
	result, err := uc.Execute(context.Background(), ExpireFlowsCommand{
		Kind:     flow.EntityClient,
		EntityID: f.client.ID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.Expired != 1 {
		t.Errorf("Expired = %d, want 1", result.Expired)
	}

	stamped, _ := f.flows.GetByID(context.Background(), target.ID())
	if stamped.ExpiredAt() == nil {
		t.Error("scoped flow should be expired")
	}
	untouched, _ := f.flows.GetByID(context.Background(), other.ID())
	if untouched.ExpiredAt() != nil {
		t.Error("unrelated flow should stay live")
	}

	if got := len(f.bus.PublishedOfKind(pubsub.KindExpireFlow)); got != 1 {
		t.Errorf("expire_flow publishes = %d, want 1", got)
	}
	rejects := f.bus.PublishedOfKind(pubsub.KindRejectAccess)
	if got := len(rejects); got != 1 {
		t.Fatalf("reject_access publishes = %d, want 1", got)
	}
	if got := rejects[0].Message.GroupID; got != f.policy.ActorGroupID() {
		t.Errorf("reject_access group_id = %d, want %d", got, f.policy.ActorGroupID())
	}
	if got := rejects[0].Message.PolicyID; got != f.policy.ID() {
		t.Errorf("reject_access policy_id = %d, want %d", got, f.policy.ID())
	}
}

// TestExpireFlows_ByActorCascades verifies the indirect actor scope reaches
// flows through the actor's clients.
func TestExpireFlows_ByActorCascades(t *testing.T) {
	f := newFlowFixture(t)
	seedFlow(t, f, time.Now().UTC().Add(time.Hour))
	f.flows.ActorOf[f.client.ID()] = f.subject.ActorID

	uc := f.expireUseCase()
	result, err := uc.Execute(context.Background(), ExpireFlowsCommand{
		Kind:     flow.EntityActor,
		EntityID: f.subject.ActorID,
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.Expired != 1 {
		t.Errorf("Expired = %d, want 1", result.Expired)
	}
}

// TestExpireFlows_InvalidScope verifies an unknown kind is rejected before
// touching storage.
func TestExpireFlows_InvalidScope(t *testing.T) {
	f := newFlowFixture(t)
	uc := f.expireUseCase()

	if _, err := uc.Execute(context.Background(), ExpireFlowsCommand{Kind: "bogus", EntityID: 1}); err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if _, err := uc.Execute(context.Background(), ExpireFlowsCommand{Kind: flow.EntityClient}); err == nil {
		t.Fatal("Execute() expected error for zero entity ID, got nil")
	}
}

// TestExpireFlows_AlreadyExpiredUntouched verifies expiry is not re-stamped
// on flows that already lapsed.
func TestExpireFlows_AlreadyExpiredUntouched(t *testing.T) {
	f := newFlowFixture(t)
	seedFlow(t, f, time.Now().UTC().Add(time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	uc := f.expireUseCase()
	result, err := uc.Execute(context.Background(), ExpireFlowsCommand{
		Kind:     flow.EntityClient,
		EntityID: f.client.ID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.Expired != 0 {
		t.Errorf("Expired = %d, want 0", result.Expired)
	}
	if got := len(f.bus.Published()); got != 0 {
		t.Errorf("published %d messages, want 0", got)
	}
}

package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
)

func seedFlow(t *testing.T, f *flowFixture, expiresAt time.Time) *flow.Flow {
	t.Helper()
	orig, err := flow.NewFlow(
		testAccountID, f.client.ID(), f.gateway.ID(), f.resource.ID(),
		f.policy.ID(), f.membership.ID(), f.subject.TokenID,
		"203.0.113.5", "198.51.100.7", "cordon-client/1.0",
		expiresAt,
	)
	if err != nil {
		t.Fatalf("NewFlow() error = %v", err)
	}
	if err := f.flows.Create(context.Background(), orig); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return orig
}

// TestReauthorizeFlow_CappedByOriginalExpiry verifies the replacement grant
// never outlives the original flow even when the policy is unconditional.
func TestReauthorizeFlow_CappedByOriginalExpiry(t *testing.T) {
	f := newFlowFixture(t)
	originalExpiry := time.Now().UTC().Add(time.Hour)
	orig := seedFlow(t, f, originalExpiry)
	uc := f.reauthorizeUseCase()

	result, err := uc.Execute(context.Background(), ReauthorizeFlowCommand{FlowID: orig.ID()})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}

	replacement, err := f.flows.GetBySID(context.Background(), result.FlowSID)
	if err != nil {
		t.Fatalf("GetBySID() error = %v", err)
	}
	if replacement == nil {
		t.Fatal("replacement flow was not saved")
	}
	if !replacement.ExpiresAt().Equal(originalExpiry) {
		t.Errorf("replacement.ExpiresAt = %v, want original expiry %v", replacement.ExpiresAt(), originalExpiry)
	}

	grants := f.bus.PublishedOfKind(pubsub.KindAllowAccess)
	if len(grants) != 1 {
		t.Errorf("allow_access publishes = %d, want 1", len(grants))
	}
}

// TestReauthorizeFlow_AbandonsWhenNoSurvivingPolicy verifies a revoked-only
// authorization is not resurrected and no replacement is created.
func TestReauthorizeFlow_AbandonsWhenNoSurvivingPolicy(t *testing.T) {
	f := newFlowFixture(t)
	orig := seedFlow(t, f, time.Now().UTC().Add(time.Hour))
	f.policy.Disable()
	uc := f.reauthorizeUseCase()

	_, err := uc.Execute(context.Background(), ReauthorizeFlowCommand{FlowID: orig.ID()})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if len(f.bus.PublishedOfKind(pubsub.KindAllowAccess)) != 0 {
		t.Error("no grant should be published on abandoned reauthorization")
	}
}

// TestReauthorizeFlow_PrefersOriginalGateway verifies the gateway already
// serving the client is kept when it is still online.
func TestReauthorizeFlow_PrefersOriginalGateway(t *testing.T) {
	f := newFlowFixture(t)
	addOnlineGateway(t, f, f.site, "gw-other")
	orig := seedFlow(t, f, time.Now().UTC().Add(time.Hour))
	uc := f.reauthorizeUseCase()

	for i := 0; i < 10; i++ {
		result, err := uc.Execute(context.Background(), ReauthorizeFlowCommand{FlowID: orig.ID()})
		if err != nil {
			t.Fatalf("Execute() unexpected error = %v", err)
		}
		if result.GatewaySID != f.gateway.SID() {
			t.Fatalf("result.GatewaySID = %v, want original gateway %v", result.GatewaySID, f.gateway.SID())
		}
	}
}

// TestReauthorizeFlow_OriginalGatewayOffline verifies reauthorization moves
// to a surviving gateway when the original went away.
func TestReauthorizeFlow_OriginalGatewayOffline(t *testing.T) {
	f := newFlowFixture(t)
	other := addOnlineGateway(t, f, f.site, "gw-other")
	orig := seedFlow(t, f, time.Now().UTC().Add(time.Hour))
	f.online.SetOnline(f.gateway.SID(), false)
	uc := f.reauthorizeUseCase()

	result, err := uc.Execute(context.Background(), ReauthorizeFlowCommand{FlowID: orig.ID()})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.GatewaySID != other.SID() {
		t.Errorf("result.GatewaySID = %v, want surviving gateway %v", result.GatewaySID, other.SID())
	}
}

// TestReauthorizeFlow_LapsedOriginal verifies a grant whose own expiry has
// passed cannot seed a replacement.
func TestReauthorizeFlow_LapsedOriginal(t *testing.T) {
	f := newFlowFixture(t)
	orig := seedFlow(t, f, time.Now().UTC().Add(time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	uc := f.reauthorizeUseCase()

	_, err := uc.Execute(context.Background(), ReauthorizeFlowCommand{FlowID: orig.ID()})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
}

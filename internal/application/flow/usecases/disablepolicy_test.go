package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
)

// TestDisablePolicy_RevokesAndReauthorizes verifies the full breakdown: the
// policy is disabled, its flows expire, revocations go out, and affected
// clients get a replacement grant through a surviving policy.
func TestDisablePolicy_RevokesAndReauthorizes(t *testing.T) {
	f := newFlowFixture(t)
	survivor := addPolicy(t, f, f.membership.GroupID(), nil)
	orig := seedFlow(t, f, time.Now().UTC().Add(time.Hour))
	uc := f.disablePolicyUseCase()

	result, err := uc.Execute(context.Background(), DisablePolicyCommand{
		Subject:   f.subject,
		PolicySID: f.policy.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.FlowsExpired != 1 {
		t.Errorf("FlowsExpired = %d, want 1", result.FlowsExpired)
	}
	if result.Reauthorized != 1 {
		t.Errorf("Reauthorized = %d, want 1", result.Reauthorized)
	}
	if !f.policy.IsDisabled() {
		t.Error("policy should be disabled")
	}

	stored, _ := f.flows.GetByID(context.Background(), orig.ID())
	if stored.ExpiredAt() == nil {
		t.Error("original flow should carry an expired_at stamp")
	}

	if got := len(f.bus.PublishedOfKind(pubsub.KindExpireFlow)); got != 1 {
		t.Errorf("expire_flow publishes = %d, want 1", got)
	}
	if got := len(f.bus.PublishedOfKind(pubsub.KindRejectAccess)); got != 1 {
		t.Errorf("reject_access publishes = %d, want 1", got)
	}
	grants := f.bus.PublishedOfKind(pubsub.KindAllowAccess)
	if len(grants) != 1 {
		t.Fatalf("allow_access publishes = %d, want 1", len(grants))
	}
	if grants[0].Message.PolicyID != survivor.ID() {
		t.Errorf("replacement grant PolicyID = %v, want survivor %v", grants[0].Message.PolicyID, survivor.ID())
	}
}

// TestDisablePolicy_NoSurvivingPolicy verifies revocation still lands when
// no other policy can re-grant access.
func TestDisablePolicy_NoSurvivingPolicy(t *testing.T) {
	f := newFlowFixture(t)
	seedFlow(t, f, time.Now().UTC().Add(time.Hour))
	uc := f.disablePolicyUseCase()

	result, err := uc.Execute(context.Background(), DisablePolicyCommand{
		Subject:   f.subject,
		PolicySID: f.policy.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.FlowsExpired != 1 {
		t.Errorf("FlowsExpired = %d, want 1", result.FlowsExpired)
	}
	if result.Reauthorized != 0 {
		t.Errorf("Reauthorized = %d, want 0", result.Reauthorized)
	}
	if got := len(f.bus.PublishedOfKind(pubsub.KindAllowAccess)); got != 0 {
		t.Errorf("allow_access publishes = %d, want 0", got)
	}

	live, _ := f.flows.ListLive(context.Background(), testAccountID, time.Now().UTC())
	if len(live) != 0 {
		t.Errorf("live flows = %d, want 0", len(live))
	}
}

// TestDisablePolicy_Idempotent verifies disabling an already-disabled policy
// is a no-op rather than a second revocation storm.
func TestDisablePolicy_Idempotent(t *testing.T) {
	f := newFlowFixture(t)
	uc := f.disablePolicyUseCase()

	if _, err := uc.Execute(context.Background(), DisablePolicyCommand{
		Subject:   f.subject,
		PolicySID: f.policy.SID(),
	}); err != nil {
		t.Fatalf("first Execute() unexpected error = %v", err)
	}

	result, err := uc.Execute(context.Background(), DisablePolicyCommand{
		Subject:   f.subject,
		PolicySID: f.policy.SID(),
	})
	if err != nil {
		t.Fatalf("second Execute() unexpected error = %v", err)
	}
	if result.FlowsExpired != 0 {
		t.Errorf("FlowsExpired = %d, want 0", result.FlowsExpired)
	}
}

// TestDisablePolicy_PermissionDenied verifies nothing changes without
// policies:manage.
func TestDisablePolicy_PermissionDenied(t *testing.T) {
	f := newFlowFixture(t)
	f.checker.Deny(authorization.PermissionManagePolicies, errors.NewUnauthorizedError("permission denied"))
	uc := f.disablePolicyUseCase()

	_, err := uc.Execute(context.Background(), DisablePolicyCommand{
		Subject:   f.subject,
		PolicySID: f.policy.SID(),
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if f.policy.IsDisabled() {
		t.Error("policy should remain enabled")
	}
}

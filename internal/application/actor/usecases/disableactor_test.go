package usecases

import (
	"context"
	"sync"
	"testing"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/errors"
)

// TestDisableActor_ExpiresFlows verifies disabling a user revokes every flow
// opened from the user's clients.
func TestDisableActor_ExpiresFlows(t *testing.T) {
	f := newActorFixture(t)
	addActor(t, f, actor.TypeAccountAdminUser, "admin")
	user := addActor(t, f, actor.TypeAccountUser, "user")
	fl := seedActorFlow(t, f, user.ID(), 7, 1)
	uc := f.disableUseCase()

	result, err := uc.Execute(context.Background(), DisableActorCommand{
		Subject:  f.subject,
		ActorSID: user.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.FlowsExpired != 1 {
		t.Errorf("FlowsExpired = %d, want 1", result.FlowsExpired)
	}
	if !user.IsDisabled() {
		t.Error("actor should be disabled")
	}

	stored, _ := f.flows.GetByID(context.Background(), fl.ID())
	if stored.ExpiredAt() == nil {
		t.Error("actor's flow should be expired")
	}
	if got := len(f.bus.PublishedOfKind(pubsub.KindRejectAccess)); got != 1 {
		t.Errorf("reject_access publishes = %d, want 1", got)
	}
}

// TestDisableActor_LastAdminRefused verifies the account's only active
// administrator cannot be disabled.
func TestDisableActor_LastAdminRefused(t *testing.T) {
	f := newActorFixture(t)
	admin := addActor(t, f, actor.TypeAccountAdminUser, "only-admin")
	uc := f.disableUseCase()

	_, err := uc.Execute(context.Background(), DisableActorCommand{
		Subject:  f.subject,
		ActorSID: admin.SID(),
	})
	if got := conflictReason(t, err); got != errors.ReasonCantDisableLastAdmin {
		t.Errorf("conflict reason = %v, want %v", got, errors.ReasonCantDisableLastAdmin)
	}
	if admin.IsDisabled() {
		t.Error("actor should remain active")
	}
}

// TestDisableActor_ConcurrentLastTwoAdmins verifies that of two concurrent
// disables targeting the last two administrators exactly one succeeds. The
// serializing transactor stands in for the row locks the real count takes.
func TestDisableActor_ConcurrentLastTwoAdmins(t *testing.T) {
	f := newActorFixture(t)
	adminA := addActor(t, f, actor.TypeAccountAdminUser, "admin-a")
	adminB := addActor(t, f, actor.TypeAccountAdminUser, "admin-b")
	uc := f.disableUseCase()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = uc.Execute(context.Background(), DisableActorCommand{
			Subject:  f.subject,
			ActorSID: adminA.SID(),
		})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = uc.Execute(context.Background(), DisableActorCommand{
			Subject:  f.subject,
			ActorSID: adminB.SID(),
		})
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if got := conflictReason(t, err); got != errors.ReasonCantDisableLastAdmin {
			t.Errorf("conflict reason = %v, want %v", got, errors.ReasonCantDisableLastAdmin)
		}
	}
	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}
	if adminA.IsDisabled() && adminB.IsDisabled() {
		t.Error("both admins disabled; the account has no administrator left")
	}
}

// TestDisableActor_Idempotent verifies disabling an already-disabled actor
// is a no-op.
func TestDisableActor_Idempotent(t *testing.T) {
	f := newActorFixture(t)
	addActor(t, f, actor.TypeAccountAdminUser, "admin")
	user := addActor(t, f, actor.TypeAccountUser, "user")
	user.Disable()
	uc := f.disableUseCase()

	result, err := uc.Execute(context.Background(), DisableActorCommand{
		Subject:  f.subject,
		ActorSID: user.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.FlowsExpired != 0 {
		t.Errorf("FlowsExpired = %d, want 0", result.FlowsExpired)
	}
}

// TestDeleteActor_LastAdminRefused verifies deletion enforces the same
// invariant as disabling, with its own reason code.
func TestDeleteActor_LastAdminRefused(t *testing.T) {
	f := newActorFixture(t)
	admin := addActor(t, f, actor.TypeAccountAdminUser, "only-admin")
	uc := f.deleteUseCase()

	_, err := uc.Execute(context.Background(), DeleteActorCommand{
		Subject:  f.subject,
		ActorSID: admin.SID(),
	})
	if got := conflictReason(t, err); got != errors.ReasonCantDeleteLastAdmin {
		t.Errorf("conflict reason = %v, want %v", got, errors.ReasonCantDeleteLastAdmin)
	}
	if admin.IsDeleted() {
		t.Error("actor should not be deleted")
	}
}

// TestDeleteActor_ExpiresFlows verifies deletion revokes the actor's flows.
func TestDeleteActor_ExpiresFlows(t *testing.T) {
	f := newActorFixture(t)
	addActor(t, f, actor.TypeAccountAdminUser, "admin")
	user := addActor(t, f, actor.TypeAccountUser, "user")
	seedActorFlow(t, f, user.ID(), 7, 1)
	uc := f.deleteUseCase()

	result, err := uc.Execute(context.Background(), DeleteActorCommand{
		Subject:  f.subject,
		ActorSID: user.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.FlowsExpired != 1 {
		t.Errorf("FlowsExpired = %d, want 1", result.FlowsExpired)
	}
	if !user.IsDeleted() {
		t.Error("actor should be deleted")
	}
}

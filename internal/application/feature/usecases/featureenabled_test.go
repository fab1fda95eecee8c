package usecases

import (
	"context"
	"testing"

	flowtestutil "github.com/cordon-zt/cordon/internal/application/flow/testutil"
	"github.com/cordon-zt/cordon/internal/domain/feature"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// TestFeatureEnabled_Defaults verifies accounts without an explicit flag row
// get each key's default.
func TestFeatureEnabled_Defaults(t *testing.T) {
	features := flowtestutil.NewMockFeatureRepository()
	uc := NewFeatureEnabledUseCase(features, logger.NewNopLogger())

	cases := []struct {
		key  feature.Key
		want bool
	}{
		{feature.KeyGeoSelection, true},
		{feature.KeySelfHostedRelays, false},
		{feature.KeyAPIClients, false},
		{feature.KeyDynamicGroups, false},
	}
	for _, tc := range cases {
		got, err := uc.Execute(context.Background(), 1, tc.key)
		if err != nil {
			t.Fatalf("Execute(%s) unexpected error = %v", tc.key, err)
		}
		if got != tc.want {
			t.Errorf("Execute(%s) = %v, want default %v", tc.key, got, tc.want)
		}
	}
}

// TestFeatureEnabled_ExplicitFlagWins verifies a stored row overrides the
// default in both directions.
func TestFeatureEnabled_ExplicitFlagWins(t *testing.T) {
	features := flowtestutil.NewMockFeatureRepository()
	setter := NewSetFeatureUseCase(features, logger.NewNopLogger())
	uc := NewFeatureEnabledUseCase(features, logger.NewNopLogger())

	if err := setter.Execute(context.Background(), 1, feature.KeySelfHostedRelays, true); err != nil {
		t.Fatalf("SetFeature error = %v", err)
	}
	if err := setter.Execute(context.Background(), 1, feature.KeyGeoSelection, false); err != nil {
		t.Fatalf("SetFeature error = %v", err)
	}

	if got, _ := uc.Execute(context.Background(), 1, feature.KeySelfHostedRelays); !got {
		t.Error("self_hosted_relays should be on after explicit enable")
	}
	if got, _ := uc.Execute(context.Background(), 1, feature.KeyGeoSelection); got {
		t.Error("geo_selection should be off after explicit disable")
	}

	// Other accounts are untouched.
	if got, _ := uc.Execute(context.Background(), 2, feature.KeySelfHostedRelays); got {
		t.Error("flags must not leak across accounts")
	}
}

// TestSetFeature_TogglesExistingRow verifies repeated sets reuse the row.
func TestSetFeature_TogglesExistingRow(t *testing.T) {
	features := flowtestutil.NewMockFeatureRepository()
	setter := NewSetFeatureUseCase(features, logger.NewNopLogger())
	uc := NewFeatureEnabledUseCase(features, logger.NewNopLogger())

	for _, enabled := range []bool{true, false, true} {
		if err := setter.Execute(context.Background(), 1, feature.KeyAPIClients, enabled); err != nil {
			t.Fatalf("SetFeature error = %v", err)
		}
		got, err := uc.Execute(context.Background(), 1, feature.KeyAPIClients)
		if err != nil {
			t.Fatalf("Execute() unexpected error = %v", err)
		}
		if got != enabled {
			t.Errorf("Execute() = %v, want %v", got, enabled)
		}
	}

	flags, _ := features.ListByAccount(context.Background(), 1)
	if len(flags) != 1 {
		t.Errorf("flag rows = %d, want 1", len(flags))
	}
}

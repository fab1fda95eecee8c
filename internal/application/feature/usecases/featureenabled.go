package usecases

import (
	"context"
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/feature"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// FeatureEnabledUseCase answers whether a feature is on for an account. An
// account without an explicit flag row gets the key's default.
type FeatureEnabledUseCase struct {
	features feature.Repository
	logger   logger.Interface
}

// NewFeatureEnabledUseCase creates a new FeatureEnabledUseCase.
func NewFeatureEnabledUseCase(features feature.Repository, logger logger.Interface) *FeatureEnabledUseCase {
	return &FeatureEnabledUseCase{features: features, logger: logger}
}

// Execute looks up the flag, falling back to the key default.
func (uc *FeatureEnabledUseCase) Execute(ctx context.Context, accountID uint, key feature.Key) (bool, error) {
	if accountID == 0 {
		return false, errors.NewValidationError("account_id is required")
	}
	flag, err := uc.features.Get(ctx, accountID, key)
	if err != nil {
		return false, fmt.Errorf("failed to read feature flag: %w", err)
	}
	if flag == nil {
		return key.Default(), nil
	}
	return flag.Enabled(), nil
}

// SetFeatureUseCase flips a feature flag for an account. Authorization is
// enforced at the transport layer; only account administrators reach this.
type SetFeatureUseCase struct {
	features feature.Repository
	logger   logger.Interface
}

// NewSetFeatureUseCase creates a new SetFeatureUseCase.
func NewSetFeatureUseCase(features feature.Repository, logger logger.Interface) *SetFeatureUseCase {
	return &SetFeatureUseCase{features: features, logger: logger}
}

// Execute upserts the flag row.
func (uc *SetFeatureUseCase) Execute(ctx context.Context, accountID uint, key feature.Key, enabled bool) error {
	if accountID == 0 {
		return errors.NewValidationError("account_id is required")
	}
	existing, err := uc.features.Get(ctx, accountID, key)
	if err != nil {
		return fmt.Errorf("failed to read feature flag: %w", err)
	}
	if existing != nil {
		existing.SetEnabled(enabled)
		if err := uc.features.Upsert(ctx, existing); err != nil {
			return fmt.Errorf("failed to update feature flag: %w", err)
		}
	} else {
		flag, err := feature.NewFlag(accountID, key, enabled)
		if err != nil {
			return err
		}
		if err := uc.features.Upsert(ctx, flag); err != nil {
			return fmt.Errorf("failed to save feature flag: %w", err)
		}
	}

	uc.logger.Infow("feature flag set", "account_id", accountID, "key", key, "enabled", enabled)
	return nil
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/constants"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// PolicyRepositoryImpl implements the policy.Repository interface.
type PolicyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PolicyMapper
	logger logger.Interface
}

// NewPolicyRepository creates a new policy repository instance.
func NewPolicyRepository(gdb *gorm.DB, log logger.Interface) policy.Repository {
	return &PolicyRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewPolicyMapper(),
		logger: log,
	}
}

// Create inserts a new policy with its conditions.
func (r *PolicyRepositoryImpl) Create(ctx context.Context, p *policy.Policy) error {
	model, err := r.mapper.ToModel(p)
	if err != nil {
		return fmt.Errorf("failed to map policy entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create policy in database", "error", err)
		return fmt.Errorf("failed to create policy: %w", err)
	}

	if err := p.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set policy ID: %w", err)
	}
	return nil
}

// GetByID retrieves a policy by its ID. Returns nil when not found.
func (r *PolicyRepositoryImpl) GetByID(ctx context.Context, policyID uint) (*policy.Policy, error) {
	var model models.PolicyModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, policyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get policy by ID", "id", policyID, "error", err)
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a policy by its external identifier.
func (r *PolicyRepositoryImpl) GetBySID(ctx context.Context, sid string) (*policy.Policy, error) {
	var model models.PolicyModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get policy by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the policy's mutable fields, conditions included.
func (r *PolicyRepositoryImpl) Update(ctx context.Context, p *policy.Policy) error {
	model, err := r.mapper.ToModel(p)
	if err != nil {
		return fmt.Errorf("failed to map policy entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update policy", "id", p.ID(), "error", err)
		return fmt.Errorf("failed to update policy: %w", err)
	}
	return nil
}

// ListAuthorizing returns active policies granting any of the actor's groups
// access to the resource. Membership is resolved inside the query so that a
// freshly inserted or deleted membership in the same transaction is visible.
func (r *PolicyRepositoryImpl) ListAuthorizing(ctx context.Context, accountID, resourceID, actorID uint) ([]*policy.Policy, error) {
	var policyModels []*models.PolicyModel

	tx := db.GetTxFromContext(ctx, r.db)
	subquery := tx.Session(&gorm.Session{NewDB: true}).
		Table(constants.TableMemberships).
		Select("group_id").
		Where("actor_id = ?", actorID)

	err := tx.
		Scopes(db.AccountScoped(accountID), db.NotDeleted()).
		Where("resource_id = ?", resourceID).
		Where("disabled_at IS NULL").
		Where("actor_group_id IN (?)", subquery).
		Find(&policyModels).Error
	if err != nil {
		r.logger.Errorw("failed to list authorizing policies",
			"account_id", accountID,
			"resource_id", resourceID,
			"actor_id", actorID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to list authorizing policies: %w", err)
	}
	return r.mapper.ToEntities(policyModels)
}

// ListForResource returns active policies on a resource.
func (r *PolicyRepositoryImpl) ListForResource(ctx context.Context, accountID, resourceID uint) ([]*policy.Policy, error) {
	var policyModels []*models.PolicyModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Scopes(db.AccountScoped(accountID), db.NotDeleted()).
		Where("resource_id = ? AND disabled_at IS NULL", resourceID).
		Find(&policyModels).Error
	if err != nil {
		r.logger.Errorw("failed to list policies for resource", "resource_id", resourceID, "error", err)
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return r.mapper.ToEntities(policyModels)
}

// ListForGroup returns active policies targeting an actor group.
func (r *PolicyRepositoryImpl) ListForGroup(ctx context.Context, accountID, groupID uint) ([]*policy.Policy, error) {
	var policyModels []*models.PolicyModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Scopes(db.AccountScoped(accountID), db.NotDeleted()).
		Where("actor_group_id = ? AND disabled_at IS NULL", groupID).
		Find(&policyModels).Error
	if err != nil {
		r.logger.Errorw("failed to list policies for group", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return r.mapper.ToEntities(policyModels)
}

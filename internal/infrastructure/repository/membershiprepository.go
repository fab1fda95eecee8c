package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// MembershipRepositoryImpl implements the actor.MembershipRepository interface.
type MembershipRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.MembershipMapper
	logger logger.Interface
}

// NewMembershipRepository creates a new membership repository instance.
func NewMembershipRepository(gdb *gorm.DB, log logger.Interface) actor.MembershipRepository {
	return &MembershipRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewMembershipMapper(),
		logger: log,
	}
}

// Create inserts a new membership edge. The (actor, group) pair is unique.
func (r *MembershipRepositoryImpl) Create(ctx context.Context, m *actor.Membership) error {
	model := r.mapper.ToModel(m)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return errors.NewConflictError("actor is already a member of the group")
		}
		r.logger.Errorw("failed to create membership in database", "error", err)
		return fmt.Errorf("failed to create membership: %w", err)
	}

	if err := m.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set membership ID: %w", err)
	}
	return nil
}

// Delete removes the membership row.
func (r *MembershipRepositoryImpl) Delete(ctx context.Context, membershipID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Delete(&models.MembershipModel{}, membershipID).Error; err != nil {
		r.logger.Errorw("failed to delete membership", "id", membershipID, "error", err)
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// GetByActorAndGroup retrieves the membership edge for an (actor, group)
// pair. Returns nil when the actor is not a member.
func (r *MembershipRepositoryImpl) GetByActorAndGroup(ctx context.Context, actorID, groupID uint) (*actor.Membership, error) {
	var model models.MembershipModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("actor_id = ? AND group_id = ?", actorID, groupID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get membership", "actor_id", actorID, "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// ListByGroup lists the group's membership edges.
func (r *MembershipRepositoryImpl) ListByGroup(ctx context.Context, groupID uint) ([]*actor.Membership, error) {
	var membershipModels []*models.MembershipModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("group_id = ?", groupID).Find(&membershipModels).Error; err != nil {
		r.logger.Errorw("failed to list memberships by group", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return r.mapper.ToEntities(membershipModels)
}

// ListByActor lists the actor's membership edges.
func (r *MembershipRepositoryImpl) ListByActor(ctx context.Context, actorID uint) ([]*actor.Membership, error) {
	var membershipModels []*models.MembershipModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("actor_id = ?", actorID).Find(&membershipModels).Error; err != nil {
		r.logger.Errorw("failed to list memberships by actor", "actor_id", actorID, "error", err)
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return r.mapper.ToEntities(membershipModels)
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// ActorGroupRepositoryImpl implements the actor.GroupRepository interface.
type ActorGroupRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ActorGroupMapper
	logger logger.Interface
}

// NewActorGroupRepository creates a new actor group repository instance.
func NewActorGroupRepository(gdb *gorm.DB, log logger.Interface) actor.GroupRepository {
	return &ActorGroupRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewActorGroupMapper(),
		logger: log,
	}
}

// Create inserts a new group.
func (r *ActorGroupRepositoryImpl) Create(ctx context.Context, g *actor.Group) error {
	model := r.mapper.ToModel(g)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create actor group in database", "error", err)
		return fmt.Errorf("failed to create actor group: %w", err)
	}

	if err := g.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set actor group ID: %w", err)
	}
	return nil
}

// GetByID retrieves a group by its ID. Returns nil when not found.
func (r *ActorGroupRepositoryImpl) GetByID(ctx context.Context, groupID uint) (*actor.Group, error) {
	var model models.ActorGroupModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get actor group by ID", "id", groupID, "error", err)
		return nil, fmt.Errorf("failed to get actor group: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a group by its external identifier.
func (r *ActorGroupRepositoryImpl) GetBySID(ctx context.Context, sid string) (*actor.Group, error) {
	var model models.ActorGroupModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get actor group by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get actor group: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the group's mutable fields.
func (r *ActorGroupRepositoryImpl) Update(ctx context.Context, g *actor.Group) error {
	model := r.mapper.ToModel(g)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update actor group", "id", g.ID(), "error", err)
		return fmt.Errorf("failed to update actor group: %w", err)
	}
	return nil
}

// LockByID fetches the group with a row lock held until the surrounding
// transaction commits. Membership recomputes serialize on this lock.
func (r *ActorGroupRepositoryImpl) LockByID(ctx context.Context, groupID uint) (*actor.Group, error) {
	var model models.ActorGroupModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, groupID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to lock actor group", "id", groupID, "error", err)
		return nil, fmt.Errorf("failed to lock actor group: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

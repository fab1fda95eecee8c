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

// ActorRepositoryImpl implements the actor.Repository interface.
type ActorRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ActorMapper
	logger logger.Interface
}

// NewActorRepository creates a new actor repository instance.
func NewActorRepository(gdb *gorm.DB, log logger.Interface) actor.Repository {
	return &ActorRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewActorMapper(),
		logger: log,
	}
}

// Create inserts a new actor.
func (r *ActorRepositoryImpl) Create(ctx context.Context, a *actor.Actor) error {
	model := r.mapper.ToModel(a)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create actor in database", "error", err)
		return fmt.Errorf("failed to create actor: %w", err)
	}

	if err := a.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set actor ID: %w", err)
	}
	return nil
}

// GetByID retrieves an actor by its ID. Returns nil when not found.
func (r *ActorRepositoryImpl) GetByID(ctx context.Context, actorID uint) (*actor.Actor, error) {
	var model models.ActorModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, actorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get actor by ID", "id", actorID, "error", err)
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves an actor by its external identifier.
func (r *ActorRepositoryImpl) GetBySID(ctx context.Context, sid string) (*actor.Actor, error) {
	var model models.ActorModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get actor by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the actor's mutable fields.
func (r *ActorRepositoryImpl) Update(ctx context.Context, a *actor.Actor) error {
	model := r.mapper.ToModel(a)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update actor", "id", a.ID(), "error", err)
		return fmt.Errorf("failed to update actor: %w", err)
	}
	return nil
}

// CountOtherActiveAdmins counts enabled, non-deleted admin actors other than
// excludeActorID, holding a row lock on the counted rows. The lock is what
// prevents two concurrent disables from both seeing a surviving sibling, so
// this must run inside a transaction.
func (r *ActorRepositoryImpl) CountOtherActiveAdmins(ctx context.Context, accountID, excludeActorID uint) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var ids []uint
	err := tx.Model(&models.ActorModel{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND id <> ? AND type = ? AND disabled_at IS NULL", accountID, excludeActorID, actor.TypeAccountAdminUser.String()).
		Scopes(db.NotDeleted()).
		Pluck("id", &ids).Error
	if err != nil {
		r.logger.Errorw("failed to count sibling admins", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to count sibling admins: %w", err)
	}
	return int64(len(ids)), nil
}

// ListActiveByAccount lists enabled, non-deleted actors in the account.
func (r *ActorRepositoryImpl) ListActiveByAccount(ctx context.Context, accountID uint) ([]*actor.Actor, error) {
	var actorModels []*models.ActorModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Scopes(db.AccountScoped(accountID), db.NotDeleted()).
		Where("disabled_at IS NULL").
		Find(&actorModels).Error
	if err != nil {
		r.logger.Errorw("failed to list active actors", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list active actors: %w", err)
	}
	return r.mapper.ToEntities(actorModels)
}

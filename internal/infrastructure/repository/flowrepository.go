package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/constants"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// FlowRepositoryImpl implements the flow.Repository interface.
type FlowRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.FlowMapper
	logger logger.Interface
}

// NewFlowRepository creates a new flow repository instance.
func NewFlowRepository(gdb *gorm.DB, log logger.Interface) flow.Repository {
	return &FlowRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewFlowMapper(),
		logger: log,
	}
}

// Create inserts a new flow. This is a pure insert; concurrent authorization
// of the same tuple yields multiple rows and readers take the most recent.
func (r *FlowRepositoryImpl) Create(ctx context.Context, f *flow.Flow) error {
	model := r.mapper.ToModel(f)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create flow in database", "error", err)
		return fmt.Errorf("failed to create flow: %w", err)
	}

	if err := f.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set flow ID: %w", err)
	}
	return nil
}

// GetByID retrieves a flow by its ID. Returns nil when not found.
func (r *FlowRepositoryImpl) GetByID(ctx context.Context, flowID uint) (*flow.Flow, error) {
	var model models.FlowModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, flowID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get flow by ID", "id", flowID, "error", err)
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a flow by its external identifier.
func (r *FlowRepositoryImpl) GetBySID(ctx context.Context, sid string) (*flow.Flow, error) {
	var model models.FlowModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get flow by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// ListLive returns the account's flows that are neither revoked nor past
// their expiry at the given instant. The expires_at comparison here is the
// lazy expiry check; rows are never trusted on expired_at alone.
func (r *FlowRepositoryImpl) ListLive(ctx context.Context, accountID uint, now time.Time) ([]*flow.Flow, error) {
	var flowModels []*models.FlowModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Scopes(db.AccountScoped(accountID), db.NotExpired(now)).
		Where("expired_at IS NULL").
		Order("created_at DESC").
		Find(&flowModels).Error
	if err != nil {
		r.logger.Errorw("failed to list live flows", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list live flows: %w", err)
	}
	return r.mapper.ToEntities(flowModels)
}

// ExpireAllFor marks every live flow matching the scope as expired and
// returns them. The affected rows are selected first under the caller's
// transaction, then stamped in one UPDATE, so the returned set is exactly
// the set revoked.
func (r *FlowRepositoryImpl) ExpireAllFor(ctx context.Context, scope flow.Scope, now time.Time) ([]*flow.Flow, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var flowModels []*models.FlowModel
	query := tx.
		Scopes(db.NotExpired(now)).
		Where("expired_at IS NULL")
	query, err := r.applyScope(tx, query, scope)
	if err != nil {
		return nil, err
	}
	if err := query.Find(&flowModels).Error; err != nil {
		r.logger.Errorw("failed to select flows for expiry", "scope_kind", scope.Kind, "scope_id", scope.ID, "error", err)
		return nil, fmt.Errorf("failed to select flows for expiry: %w", err)
	}
	if len(flowModels) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(flowModels))
	for _, model := range flowModels {
		ids = append(ids, model.ID)
		expiredAt := now
		model.ExpiredAt = &expiredAt
	}

	err = tx.Model(&models.FlowModel{}).
		Where("id IN ?", ids).
		Update("expired_at", now).Error
	if err != nil {
		r.logger.Errorw("failed to expire flows", "scope_kind", scope.Kind, "scope_id", scope.ID, "error", err)
		return nil, fmt.Errorf("failed to expire flows: %w", err)
	}

	return r.mapper.ToEntities(flowModels)
}

// applyScope narrows the query to flows referencing the scoped entity.
// Actor, group, and provider scopes resolve through subqueries since flows
// do not carry those columns directly.
func (r *FlowRepositoryImpl) applyScope(tx *gorm.DB, query *gorm.DB, scope flow.Scope) (*gorm.DB, error) {
	sub := func(table, sel, where string, arg any) *gorm.DB {
		return tx.Session(&gorm.Session{NewDB: true}).Table(table).Select(sel).Where(where, arg)
	}

	switch scope.Kind {
	case flow.EntityClient:
		return query.Where("client_id = ?", scope.ID), nil
	case flow.EntityGateway:
		return query.Where("gateway_id = ?", scope.ID), nil
	case flow.EntityResource:
		return query.Where("resource_id = ?", scope.ID), nil
	case flow.EntityPolicy:
		return query.Where("policy_id = ?", scope.ID), nil
	case flow.EntityMembership:
		return query.Where("membership_id = ?", scope.ID), nil
	case flow.EntityToken:
		return query.Where("token_id = ?", scope.ID), nil
	case flow.EntityActor:
		return query.Where("client_id IN (?)",
			sub(constants.TableClients, "id", "actor_id = ?", scope.ID)), nil
	case flow.EntityGroup:
		return query.Where("membership_id IN (?)",
			sub(constants.TableMemberships, "id", "group_id = ?", scope.ID)), nil
	case flow.EntityProvider:
		groups := sub(constants.TableActorGroups, "id", "provider_id = ?", scope.ID)
		memberships := tx.Session(&gorm.Session{NewDB: true}).
			Table(constants.TableMemberships).
			Select("id").
			Where("group_id IN (?)", groups)
		return query.Where("membership_id IN (?)", memberships), nil
	default:
		return nil, fmt.Errorf("unknown flow scope kind: %s", scope.Kind)
	}
}

// DeleteExpiredBefore removes at most batch rows whose expiry passed before
// cutoff. Storage hygiene only; correctness never depends on this running.
func (r *FlowRepositoryImpl) DeleteExpiredBefore(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var ids []uint
	err := tx.Model(&models.FlowModel{}).
		Where("expires_at < ?", cutoff).
		Limit(batch).
		Pluck("id", &ids).Error
	if err != nil {
		r.logger.Errorw("failed to select expired flows", "error", err)
		return 0, fmt.Errorf("failed to select expired flows: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := tx.Delete(&models.FlowModel{}, ids)
	if result.Error != nil {
		r.logger.Errorw("failed to delete expired flows", "error", result.Error)
		return 0, fmt.Errorf("failed to delete expired flows: %w", result.Error)
	}
	return result.RowsAffected, nil
}

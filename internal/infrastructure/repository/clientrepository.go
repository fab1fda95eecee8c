package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/client"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// ClientRepositoryImpl implements the client.Repository interface.
type ClientRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ClientMapper
	logger logger.Interface
}

// NewClientRepository creates a new client repository instance.
func NewClientRepository(gdb *gorm.DB, log logger.Interface) client.Repository {
	return &ClientRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewClientMapper(),
		logger: log,
	}
}

// Create inserts a new client device.
func (r *ClientRepositoryImpl) Create(ctx context.Context, c *client.Client) error {
	model := r.mapper.ToModel(c)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create client in database", "error", err)
		return fmt.Errorf("failed to create client: %w", err)
	}

	if err := c.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set client ID: %w", err)
	}
	return nil
}

// GetByID retrieves a client by its ID. Returns nil when not found.
func (r *ClientRepositoryImpl) GetByID(ctx context.Context, clientID uint) (*client.Client, error) {
	var model models.ClientModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, clientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get client by ID", "id", clientID, "error", err)
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a client by its external identifier.
func (r *ClientRepositoryImpl) GetBySID(ctx context.Context, sid string) (*client.Client, error) {
	var model models.ClientModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get client by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the client's mutable fields.
func (r *ClientRepositoryImpl) Update(ctx context.Context, c *client.Client) error {
	model := r.mapper.ToModel(c)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update client", "id", c.ID(), "error", err)
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// ListByActor lists the actor's non-deleted client devices.
func (r *ClientRepositoryImpl) ListByActor(ctx context.Context, actorID uint) ([]*client.Client, error) {
	var clientModels []*models.ClientModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("actor_id = ?", actorID).
		Scopes(db.NotDeleted()).
		Find(&clientModels).Error
	if err != nil {
		r.logger.Errorw("failed to list clients by actor", "actor_id", actorID, "error", err)
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return r.mapper.ToEntities(clientModels)
}

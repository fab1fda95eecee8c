package database

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// AutoMigrate creates missing tables and columns for every broker model.
// Development convenience only; production schema changes run through the
// external migration pipeline.
func AutoMigrate() error {
	database := Get()
	if database == nil {
		return fmt.Errorf("database is not initialized")
	}

	return database.AutoMigrate(
		&models.ActorModel{},
		&models.ActorGroupModel{},
		&models.MembershipModel{},
		&models.ClientModel{},
		&models.ResourceModel{},
		&models.ResourceSiteModel{},
		&models.PolicyModel{},
		&models.FlowModel{},
		&models.GatewayModel{},
		&models.SiteModel{},
		&models.RelayModel{},
		&models.TokenModel{},
		&models.FeatureModel{},
	)
}

package models

import (
	"context"

	"github.com/H2RkawaNinja/dashboard/config"
	"gorm.io/gorm"
)

// MigrateTable creates or alters every table and seeds the rows the
// application expects to exist.
func MigrateTable(ctx context.Context) error {
	db := config.GetDB().WithContext(ctx)

	err := db.AutoMigrate(
		&Member{}, &ActivityLog{},
		&HeroInventory{}, &HeroDelivery{}, &HeroDistribution{}, &HeroSale{},
		&HeroDistributionArchive{}, &HeroSalesArchive{},
		&FencePurchase{}, &FenceSale{}, &FenceItemTemplate{},
		&WarehouseItem{}, &StorageSlot{},
		&Intelligence{},
		&Recipe{}, &RecipeIngredient{},
		&MaintenanceSetting{},
	)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedMaintenanceModules(tx); err != nil {
			return err
		}
		_, err := loadHeroInventory(tx)
		if err == errStaleVersion {
			return nil
		}
		return err
	})
}

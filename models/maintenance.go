package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// modules that can be switched into maintenance mode
var MaintenanceModules = []string{
	"overview",
	"members",
	"hero",
	"fence",
	"warehouse",
	"storage",
	"recipes",
	"intelligence",
	"activity",
}

type MaintenanceSetting struct {
	ID         int        `gorm:"primary_key" json:"-"`
	ModuleName string     `gorm:"size:50;not null;uniqueIndex" json:"-"`
	IsDisabled bool       `gorm:"not null;default:false" json:"is_disabled"`
	DisabledBy *int       `json:"disabled_by"`
	DisabledAt *time.Time `json:"disabled_at"`
	Reason     *string    `gorm:"size:255" json:"reason"`
}

func (MaintenanceSetting) TableName() string {
	return "maintenance_settings"
}

type MaintenanceStatus struct {
	IsDisabled bool    `json:"is_disabled"`
	Reason     *string `json:"reason,omitempty"`
}

func isMaintenanceModule(module string) bool {
	for _, m := range MaintenanceModules {
		if m == module {
			return true
		}
	}
	return false
}

// seedMaintenanceModules adds an enabled row for every known module that has none.
func seedMaintenanceModules(tx *gorm.DB) error {
	rows := make([]MaintenanceSetting, 0, len(MaintenanceModules))
	for _, m := range MaintenanceModules {
		rows = append(rows, MaintenanceSetting{ModuleName: m})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "module_name"}},
		DoNothing: true,
	}).Create(&rows).Error
}

func GetMaintenanceSettings(ctx context.Context) (map[string]*MaintenanceSetting, error) {
	db := config.GetDB()
	var rows []*MaintenanceSetting
	if err := db.WithContext(ctx).Order("module_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*MaintenanceSetting, len(rows))
	for _, r := range rows {
		result[r.ModuleName] = r
	}
	return result, nil
}

// UpdateMaintenanceSettings upserts the on/off flag of each module in one
// transaction.
func UpdateMaintenanceSettings(ctx context.Context, settings map[string]bool) error {
	if len(settings) == 0 {
		return utils.NewValidationError("Keine Einstellungen übermittelt")
	}
	modules := make([]string, 0, len(settings))
	for m := range settings {
		if !isMaintenanceModule(m) {
			return utils.NewValidationError("Unbekanntes Modul: %s", m)
		}
		modules = append(modules, m)
	}
	sort.Strings(modules)

	actorId := utils.ActorIdFromContext(ctx)
	username, _ := utils.GetUsernameFromContext(ctx)
	now := time.Now()

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range modules {
			row := MaintenanceSetting{ModuleName: m, IsDisabled: settings[m]}
			if row.IsDisabled {
				reason := fmt.Sprintf("Wartungsmodus aktiviert von %s", username)
				row.DisabledBy = actorId
				row.DisabledAt = &now
				row.Reason = &reason
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "module_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"is_disabled", "disabled_by", "disabled_at", "reason"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		return logActivity(ctx, tx, ActionMaintenance, "Wartungseinstellungen geändert", settings)
	})
	if err != nil {
		return err
	}
	config.LogInfo(config.GetLogger(), "Maintenance", "UpdateMaintenanceSettings", "maintenance settings changed", settings)
	return nil
}

// GetMaintenanceStatus reports a module as enabled when it has no row.
func GetMaintenanceStatus(ctx context.Context, module string) (*MaintenanceStatus, error) {
	db := config.GetDB()
	var row MaintenanceSetting
	err := db.WithContext(ctx).Where("module_name = ?", module).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &MaintenanceStatus{IsDisabled: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &MaintenanceStatus{IsDisabled: row.IsDisabled, Reason: row.Reason}, nil
}

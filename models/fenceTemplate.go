package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const activeTemplatesScope = "active"

type FenceItemTemplate struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ItemName      string          `gorm:"size:150;not null" json:"item_name"`
	Category      string          `gorm:"size:100;not null;index" json:"category"`
	TypicalPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"typical_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"sale_price"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	Icon          *string         `gorm:"size:50" json:"icon"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (FenceItemTemplate) TableName() string {
	return "fence_item_templates"
}

type FenceTemplateInput struct {
	ItemName      string          `json:"item_name"`
	Category      string          `json:"category"`
	TypicalPrice  decimal.Decimal `json:"typical_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	IsActive      *bool           `json:"is_active"`
	Icon          *string         `json:"icon"`
}

var errTemplateNotFound = utils.NewNotFoundError("Produkt nicht gefunden")

func (input *FenceTemplateInput) validate() error {
	if strings.TrimSpace(input.ItemName) == "" || strings.TrimSpace(input.Category) == "" {
		return utils.NewValidationError("Artikelname und Kategorie sind erforderlich")
	}
	if input.TypicalPrice.IsNegative() || input.PurchasePrice.IsNegative() || input.SalePrice.IsNegative() {
		return utils.NewValidationError("Preis darf nicht negativ sein")
	}
	return nil
}

func invalidateTemplateCache() {
	if err := utils.RemoveRedisList[FenceItemTemplate](activeTemplatesScope); err != nil {
		config.LogError(config.GetLogger(), "FenceTemplate", "invalidateTemplateCache", "failed to drop cached templates", "", err)
	}
}

// ListActiveFenceTemplates serves the catalog from redis when cached.
func ListActiveFenceTemplates(ctx context.Context) ([]*FenceItemTemplate, error) {
	cached, err := utils.RetrieveRedisList[FenceItemTemplate](activeTemplatesScope)
	if err == nil && cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var results []*FenceItemTemplate
	if err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category").Order("item_name").
		Find(&results).Error; err != nil {
		return nil, err
	}
	if err := utils.StoreRedisList(results, activeTemplatesScope); err != nil {
		config.LogError(config.GetLogger(), "FenceTemplate", "ListActiveFenceTemplates", "failed to cache templates", "", err)
	}
	return results, nil
}

func ListAllFenceTemplates(ctx context.Context) ([]*FenceItemTemplate, error) {
	db := config.GetDB()
	var results []*FenceItemTemplate
	if err := db.WithContext(ctx).Order("category").Order("item_name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetFenceTemplate(ctx context.Context, id int) (*FenceItemTemplate, error) {
	template, err := utils.FetchModel[FenceItemTemplate](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, errTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

func CreateFenceTemplate(ctx context.Context, input *FenceTemplateInput) (*FenceItemTemplate, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	template := FenceItemTemplate{
		ItemName:      strings.TrimSpace(input.ItemName),
		Category:      strings.TrimSpace(input.Category),
		TypicalPrice:  input.TypicalPrice,
		PurchasePrice: input.PurchasePrice,
		SalePrice:     input.SalePrice,
		IsActive:      utils.NewTrue(),
		Icon:          input.Icon,
	}
	if input.IsActive != nil {
		template.IsActive = input.IsActive
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionFenceTemplate,
			fmt.Sprintf("Produkt angelegt: %s (%s)", template.ItemName, template.Category), nil)
	})
	if err != nil {
		return nil, err
	}
	invalidateTemplateCache()
	return &template, nil
}

func UpdateFenceTemplate(ctx context.Context, id int, input *FenceTemplateInput) (*FenceItemTemplate, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var template *FenceItemTemplate
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		template, err = utils.FetchModelTx[FenceItemTemplate](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errTemplateNotFound
			}
			return err
		}
		updates := map[string]interface{}{
			"item_name":      strings.TrimSpace(input.ItemName),
			"category":       strings.TrimSpace(input.Category),
			"typical_price":  input.TypicalPrice,
			"purchase_price": input.PurchasePrice,
			"sale_price":     input.SalePrice,
			"icon":           input.Icon,
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if err := tx.Model(template).Updates(updates).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionFenceTemplate,
			fmt.Sprintf("Produkt aktualisiert: %s", template.ItemName), nil)
	})
	if err != nil {
		return nil, err
	}
	invalidateTemplateCache()
	return template, nil
}

func DeleteFenceTemplate(ctx context.Context, id int) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		template, err := utils.FetchModelTx[FenceItemTemplate](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errTemplateNotFound
			}
			return err
		}
		if err := tx.Delete(template).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionFenceTemplate,
			fmt.Sprintf("Produkt gelöscht: %s", template.ItemName), nil)
	})
	if err != nil {
		return err
	}
	invalidateTemplateCache()
	return nil
}

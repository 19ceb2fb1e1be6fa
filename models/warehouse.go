package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WarehouseItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	ItemName        string          `gorm:"size:150;not null;index" json:"item_name"`
	Category        string          `gorm:"size:100;not null;index" json:"category"`
	Quantity        int             `gorm:"not null;default:0" json:"quantity"`
	UnitValue       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_value"`
	Location        *string         `gorm:"size:150" json:"location"`
	StorageLocation *string         `gorm:"size:50;default:UNSORTED;index" json:"storage_location"`
	State           WarehouseState  `gorm:"size:20;not null;default:unsorted;index" json:"state"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (WarehouseItem) TableName() string {
	return "warehouse"
}

// MarshalJSON adds the derived sorting_complete and total_value fields.
func (w WarehouseItem) MarshalJSON() ([]byte, error) {
	type alias WarehouseItem
	return json.Marshal(struct {
		alias
		SortingComplete bool            `json:"sorting_complete"`
		TotalValue      decimal.Decimal `json:"total_value"`
	}{
		alias:           alias(w),
		SortingComplete: w.State == WarehouseStateComplete,
		TotalValue:      w.UnitValue.Mul(decimal.NewFromInt(int64(w.Quantity))),
	})
}

type NewWarehouseItem struct {
	ItemName  string          `json:"item_name" binding:"required"`
	Category  string          `json:"category" binding:"required"`
	Quantity  int             `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
	Location  *string         `json:"location"`
}

type UpdateWarehouseItemInput struct {
	Quantity  int             `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
}

// allowed state changes; unsorted→complete and complete→complete are not
var warehouseTransitions = map[WarehouseState][]WarehouseState{
	WarehouseStateUnsorted: {WarehouseStateSorting},
	WarehouseStateSorting:  {WarehouseStateSorting, WarehouseStateUnsorted, WarehouseStateComplete},
	WarehouseStateComplete: {WarehouseStateSorting, WarehouseStateUnsorted},
}

func canTransition(from WarehouseState, to WarehouseState) bool {
	for _, s := range warehouseTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var (
	errWarehouseItemNotFound = utils.NewNotFoundError("Artikel nicht gefunden")
	errSlotDoesNotExist      = utils.NewValidationError("Lagerplatz existiert nicht")
)

func invalidTransition(from WarehouseState, to WarehouseState) error {
	return utils.NewValidationError("Ungültiger Statuswechsel von %s nach %s", from, to)
}

func isUnsortedLocation(location string) bool {
	location = strings.TrimSpace(location)
	return location == "" || location == UnsortedLocation
}

func ListWarehouseItems(ctx context.Context) ([]*WarehouseItem, error) {
	db := config.GetDB()
	var results []*WarehouseItem
	err := db.WithContext(ctx).Order("category").Order("item_name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetWarehouseItem(ctx context.Context, id int) (*WarehouseItem, error) {
	item, err := utils.FetchModel[WarehouseItem](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, errWarehouseItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func CreateWarehouseItem(ctx context.Context, input *NewWarehouseItem) (*WarehouseItem, error) {
	if strings.TrimSpace(input.ItemName) == "" || strings.TrimSpace(input.Category) == "" {
		return nil, utils.NewValidationError("Artikelname und Kategorie sind erforderlich")
	}
	if input.Quantity < 0 {
		return nil, errInvalidQuantity
	}
	unsorted := UnsortedLocation
	item := WarehouseItem{
		ItemName:        strings.TrimSpace(input.ItemName),
		Category:        strings.TrimSpace(input.Category),
		Quantity:        input.Quantity,
		UnitValue:       input.UnitValue,
		Location:        input.Location,
		StorageLocation: &unsorted,
		State:           WarehouseStateUnsorted,
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("%s hat %dx %s eingelagert", actorName(ctx), item.Quantity, item.ItemName),
			map[string]any{"item_id": item.ID, "category": item.Category})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdateWarehouseItem(ctx context.Context, id int, input *UpdateWarehouseItemInput) error {
	if input.Quantity < 0 {
		return errInvalidQuantity
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := utils.FetchModelTx[WarehouseItem](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errWarehouseItemNotFound
			}
			return err
		}
		if err := tx.Model(&WarehouseItem{}).Where("id = ?", id).Updates(map[string]interface{}{
			"quantity":   input.Quantity,
			"unit_value": input.UnitValue,
		}).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("%s hat %s aktualisiert (Menge %d auf %d)", actorName(ctx), item.ItemName, item.Quantity, input.Quantity),
			map[string]any{"item_id": id, "quantity": input.Quantity, "unit_value": input.UnitValue})
	})
}

// AssignWarehouseLocation moves an item to a storage slot, or back to the
// sorting area when location is empty or UNSORTED.
func AssignWarehouseLocation(ctx context.Context, id int, location string) error {
	location = strings.TrimSpace(location)
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := utils.FetchModelTx[WarehouseItem](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errWarehouseItemNotFound
			}
			return err
		}

		target := WarehouseStateSorting
		if isUnsortedLocation(location) {
			target = WarehouseStateUnsorted
			location = UnsortedLocation
		} else {
			var count int64
			if err := tx.Model(&StorageSlot{}).Where("slot_code = ?", location).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errSlotDoesNotExist
			}
		}
		if item.State != target && !canTransition(item.State, target) {
			return invalidTransition(item.State, target)
		}

		if err := tx.Model(&WarehouseItem{}).Where("id = ?", id).Updates(map[string]interface{}{
			"storage_location": location,
			"state":            target,
		}).Error; err != nil {
			return err
		}

		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("%s hat %dx %s in Lager %s sortiert", actorName(ctx), item.Quantity, item.ItemName, location),
			map[string]any{"item_id": id, "from": utils.DereferencePtr(item.StorageLocation, ""), "to": location})
	})
}

func CompleteWarehouseItem(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := utils.FetchModelTx[WarehouseItem](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errWarehouseItemNotFound
			}
			return err
		}
		if !canTransition(item.State, WarehouseStateComplete) {
			return invalidTransition(item.State, WarehouseStateComplete)
		}
		if err := tx.Model(&WarehouseItem{}).Where("id = ?", id).Update("state", WarehouseStateComplete).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("%s hat %s fertig einsortiert", actorName(ctx), item.ItemName),
			map[string]any{"item_id": id, "storage_location": utils.DereferencePtr(item.StorageLocation, "")})
	})
}

// FinishSorting completes every item in the sorting state. It refuses while
// items still sit in the sorting area.
func FinishSorting(ctx context.Context) (int, error) {
	db := config.GetDB()
	var completed int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unsorted int64
		if err := tx.Model(&WarehouseItem{}).Where("state = ?", WarehouseStateUnsorted).Count(&unsorted).Error; err != nil {
			return err
		}
		if unsorted > 0 {
			return utils.NewValidationError("Noch %d unsortierte Artikel vorhanden", unsorted)
		}
		res := tx.Model(&WarehouseItem{}).Where("state = ?", WarehouseStateSorting).Update("state", WarehouseStateComplete)
		if res.Error != nil {
			return res.Error
		}
		completed = int(res.RowsAffected)
		if completed == 0 {
			return nil
		}
		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("Sortierung abgeschlossen: %d Artikel einsortiert", completed), nil)
	})
	if err != nil {
		return 0, err
	}
	return completed, nil
}

func DeleteWarehouseItem(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := utils.FetchModelTx[WarehouseItem](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errWarehouseItemNotFound
			}
			return err
		}
		if err := tx.Delete(&WarehouseItem{}, id).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("%s hat %dx %s aus dem Lager entfernt", actorName(ctx), item.Quantity, item.ItemName),
			map[string]any{"item_id": id})
	})
}

// storeFenceGoods merges a bought lot into the unsorted fence goods row of the
// same name, or adds a new unsorted row.
func storeFenceGoods(tx *gorm.DB, itemName string, quantity int, unitPrice decimal.Decimal) error {
	var existing WarehouseItem
	err := tx.Where("item_name = ? AND category = ? AND (storage_location = ? OR storage_location IS NULL)",
		itemName, FenceGoodsCategory, UnsortedLocation).
		Order("id").
		Take(&existing).Error
	if err == nil {
		return tx.Model(&WarehouseItem{}).Where("id = ?", existing.ID).
			Update("quantity", gorm.Expr("quantity + ?", quantity)).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	unsorted := UnsortedLocation
	return tx.Create(&WarehouseItem{
		ItemName:        itemName,
		Category:        FenceGoodsCategory,
		Quantity:        quantity,
		UnitValue:       unitPrice,
		StorageLocation: &unsorted,
		State:           WarehouseStateUnsorted,
	}).Error
}

// releaseFenceGoods takes quantity off the first fence goods row of the name.
// The row is deleted once nothing is left.
func releaseFenceGoods(tx *gorm.DB, itemName string, quantity int) error {
	var item WarehouseItem
	err := tx.Where("item_name = ? AND category = ?", itemName, FenceGoodsCategory).
		Order("id").
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	remaining := item.Quantity - quantity
	if remaining <= 0 {
		return tx.Delete(&WarehouseItem{}, item.ID).Error
	}
	return tx.Model(&WarehouseItem{}).Where("id = ?", item.ID).Update("quantity", remaining).Error
}

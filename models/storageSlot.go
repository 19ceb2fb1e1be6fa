package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"gorm.io/gorm"
)

type StorageSlot struct {
	ID          int       `gorm:"primary_key" json:"id"`
	SlotCode    string    `gorm:"size:20;not null;uniqueIndex" json:"slot_code"`
	Name        *string   `gorm:"size:100" json:"name"`
	Section     string    `gorm:"size:50;not null;default:Lager" json:"section"`
	Owner       *string   `gorm:"size:100" json:"owner"`
	WarehouseId string    `gorm:"size:20;not null" json:"warehouse_id"`
	Password    *string   `gorm:"size:255" json:"-"`
	Location    string    `gorm:"size:100;not null;default:Paleto" json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

func (StorageSlot) TableName() string {
	return "storage_slots"
}

type StorageSlotInput struct {
	WarehouseId string  `json:"warehouse_id"`
	Owner       *string `json:"owner"`
	Password    string  `json:"password"`
	Location    string  `json:"location"`
}

var (
	errSlotNotFound  = utils.NewNotFoundError("Lagerplatz nicht gefunden")
	errSlotDuplicate = utils.NewValidationError("Lager-ID existiert bereits")
)

// normalize validates the input and returns the bcrypt hash of a new password,
// or nil when none was sent.
func (input *StorageSlotInput) normalize() (*string, error) {
	input.WarehouseId = strings.TrimSpace(input.WarehouseId)
	if !utils.IsDigits(input.WarehouseId, 8) {
		return nil, utils.NewValidationError("Lager-ID muss genau 8 Ziffern enthalten")
	}
	if input.Password != "" && !utils.IsDigits(input.Password, 4) {
		return nil, utils.NewValidationError("Passwort muss genau 4 Ziffern enthalten")
	}
	input.Location = strings.TrimSpace(input.Location)
	if input.Location == "" {
		input.Location = DefaultSlotLocation
	}
	if input.Owner != nil {
		input.Owner = utils.NilIfEmpty(*input.Owner)
	}
	if input.Password == "" {
		return nil, nil
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	h := string(hashed)
	return &h, nil
}

func ownerLabel(owner *string) string {
	return utils.DereferencePtr(owner, "Keiner")
}

func ListStorageSlots(ctx context.Context) ([]*StorageSlot, error) {
	db := config.GetDB()
	var results []*StorageSlot
	err := db.WithContext(ctx).Omit("password").Order("section").Order("slot_code").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func CreateStorageSlot(ctx context.Context, input *StorageSlotInput) (*StorageSlot, error) {
	hashed, err := input.normalize()
	if err != nil {
		return nil, err
	}
	slot := StorageSlot{
		SlotCode:    input.WarehouseId,
		Section:     DefaultSlotSection,
		Owner:       input.Owner,
		WarehouseId: input.WarehouseId,
		Password:    hashed,
		Location:    input.Location,
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&slot).Error; err != nil {
			if utils.IsDuplicateKeyError(err) {
				return errSlotDuplicate
			}
			return err
		}
		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("Lager %s (%s) erstellt - Besitzer: %s", slot.WarehouseId, slot.Location, ownerLabel(slot.Owner)), nil)
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// UpdateStorageSlot changes the slot and moves every warehouse row stored
// under its current code onto the new one. The stored password survives
// unless a new one is sent.
func UpdateStorageSlot(ctx context.Context, id int, input *StorageSlotInput) error {
	hashed, err := input.normalize()
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := utils.FetchModelTx[StorageSlot](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errSlotNotFound
			}
			return err
		}
		oldCode := slot.SlotCode

		updates := map[string]interface{}{
			"slot_code":    input.WarehouseId,
			"owner":        input.Owner,
			"warehouse_id": input.WarehouseId,
			"location":     input.Location,
		}
		if hashed != nil {
			updates["password"] = *hashed
		}
		if err := tx.Model(&StorageSlot{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if utils.IsDuplicateKeyError(err) {
				return errSlotDuplicate
			}
			return err
		}
		if oldCode != input.WarehouseId {
			if err := tx.Model(&WarehouseItem{}).
				Where("storage_location = ?", oldCode).
				Update("storage_location", input.WarehouseId).Error; err != nil {
				return err
			}
		}
		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("Lager %s (%s) bearbeitet - Besitzer: %s", input.WarehouseId, input.Location, ownerLabel(input.Owner)), nil)
	})
}

// DeleteStorageSlot returns the slot's items to the sorting area before the
// slot is removed.
func DeleteStorageSlot(ctx context.Context, id int) (int, error) {
	db := config.GetDB()
	var moved int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := utils.FetchModelTx[StorageSlot](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errSlotNotFound
			}
			return err
		}
		res := tx.Model(&WarehouseItem{}).
			Where("storage_location = ?", slot.SlotCode).
			Updates(map[string]interface{}{
				"storage_location": UnsortedLocation,
				"state":            WarehouseStateUnsorted,
			})
		if res.Error != nil {
			return res.Error
		}
		moved = int(res.RowsAffected)
		if err := tx.Delete(&StorageSlot{}, slot.ID).Error; err != nil {
			return err
		}

		return logActivity(ctx, tx, ActionWarehouse,
			fmt.Sprintf("Lager %s gelöscht von %s - Artikel zurück in Sortierbereich", slot.SlotCode, actorName(ctx)),
			map[string]any{"moved_items": moved})
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// VerifyStorageSlotPassword reports whether password opens the slot. A slot
// without a password accepts anything.
func VerifyStorageSlotPassword(ctx context.Context, id int, password string) (bool, error) {
	slot, err := utils.FetchModel[StorageSlot](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return false, errSlotNotFound
		}
		return false, err
	}
	if slot.Password == nil || *slot.Password == "" {
		return true, nil
	}
	return utils.PasswordMatches(*slot.Password, password), nil
}

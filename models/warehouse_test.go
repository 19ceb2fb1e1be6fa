package models_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func addItem(t *testing.T, ctx context.Context, name string, qty int) *models.WarehouseItem {
	t.Helper()
	item, err := models.CreateWarehouseItem(ctx, &models.NewWarehouseItem{
		ItemName:  name,
		Category:  "Waffen",
		Quantity:  qty,
		UnitValue: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return item
}

func addSlot(t *testing.T, ctx context.Context, code string, password string) *models.StorageSlot {
	t.Helper()
	slot, err := models.CreateStorageSlot(ctx, &models.StorageSlotInput{WarehouseId: code, Password: password})
	require.NoError(t, err)
	return slot
}

func TestWarehouseItemJSONDerivesFields(t *testing.T) {
	item := models.WarehouseItem{Quantity: 3, UnitValue: decimal.NewFromInt(7), State: models.WarehouseStateComplete}
	raw, err := json.Marshal(item)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, true, decoded["sorting_complete"])
	require.Equal(t, "21", decoded["total_value"])
	require.Equal(t, "complete", decoded["state"])
}

func TestWarehouseStateTransitions(t *testing.T) {
	ctx, _ := setupBoss(t)
	item := addItem(t, ctx, "Pistole", 2)
	addSlot(t, ctx, "12345678", "")
	addSlot(t, ctx, "87654321", "")

	err := models.CompleteWarehouseItem(ctx, item.ID)
	requireKind(t, utils.KindValidation, err)

	err = models.AssignWarehouseLocation(ctx, item.ID, "00000000")
	require.Equal(t, "Lagerplatz existiert nicht", utils.MessageOf(err))

	require.NoError(t, models.AssignWarehouseLocation(ctx, item.ID, "12345678"))
	require.NoError(t, models.AssignWarehouseLocation(ctx, item.ID, "87654321"))
	require.NoError(t, models.CompleteWarehouseItem(ctx, item.ID))
	requireKind(t, utils.KindValidation, models.CompleteWarehouseItem(ctx, item.ID))

	require.NoError(t, models.AssignWarehouseLocation(ctx, item.ID, "12345678"))
	got, err := models.GetWarehouseItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.WarehouseStateSorting, got.State)

	require.NoError(t, models.AssignWarehouseLocation(ctx, item.ID, ""))
	got, err = models.GetWarehouseItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.WarehouseStateUnsorted, got.State)
	require.Equal(t, models.UnsortedLocation, *got.StorageLocation)

	err = models.AssignWarehouseLocation(ctx, 999, "12345678")
	require.Equal(t, "Artikel nicht gefunden", utils.MessageOf(err))
}

func TestFinishSorting(t *testing.T) {
	ctx, _ := setupBoss(t)
	first := addItem(t, ctx, "Messer", 1)
	second := addItem(t, ctx, "Schlagring", 1)
	addSlot(t, ctx, "12345678", "")

	require.NoError(t, models.AssignWarehouseLocation(ctx, first.ID, "12345678"))
	_, err := models.FinishSorting(ctx)
	require.Equal(t, "Noch 1 unsortierte Artikel vorhanden", utils.MessageOf(err))

	require.NoError(t, models.AssignWarehouseLocation(ctx, second.ID, "12345678"))
	count, err := models.FinishSorting(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	items, err := models.ListWarehouseItems(ctx)
	require.NoError(t, err)
	for _, item := range items {
		require.Equal(t, models.WarehouseStateComplete, item.State)
	}

	stats, err := models.GetOverviewStats(ctx)
	require.NoError(t, err)
	requireDecimal(t, "20", stats.WarehouseValue)
}

func TestStorageSlotValidation(t *testing.T) {
	ctx, _ := setupBoss(t)

	_, err := models.CreateStorageSlot(ctx, &models.StorageSlotInput{WarehouseId: "1234"})
	require.Equal(t, "Lager-ID muss genau 8 Ziffern enthalten", utils.MessageOf(err))
	_, err = models.CreateStorageSlot(ctx, &models.StorageSlotInput{WarehouseId: "1234567a"})
	require.Equal(t, "Lager-ID muss genau 8 Ziffern enthalten", utils.MessageOf(err))
	_, err = models.CreateStorageSlot(ctx, &models.StorageSlotInput{WarehouseId: "12345678", Password: "12a4"})
	require.Equal(t, "Passwort muss genau 4 Ziffern enthalten", utils.MessageOf(err))

	slot := addSlot(t, ctx, "12345678", "1234")
	require.Equal(t, models.DefaultSlotSection, slot.Section)
	require.Equal(t, models.DefaultSlotLocation, slot.Location)
	require.Equal(t, "12345678", slot.SlotCode)

	_, err = models.CreateStorageSlot(ctx, &models.StorageSlotInput{WarehouseId: "12345678"})
	require.Equal(t, "Lager-ID existiert bereits", utils.MessageOf(err))

	ok, err := models.VerifyStorageSlotPassword(ctx, slot.ID, "1234")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = models.VerifyStorageSlotPassword(ctx, slot.ID, "4321")
	require.NoError(t, err)
	require.False(t, ok)

	slots, err := models.ListStorageSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Nil(t, slots[0].Password)
}

func TestStorageSlotRenameMovesItems(t *testing.T) {
	ctx, _ := setupBoss(t)
	slot := addSlot(t, ctx, "12345678", "1234")
	item := addItem(t, ctx, "Gewehr", 1)
	loose := addItem(t, ctx, "Munition", 5)
	require.NoError(t, models.AssignWarehouseLocation(ctx, item.ID, "12345678"))

	owner := "Vito"
	require.NoError(t, models.UpdateStorageSlot(ctx, slot.ID, &models.StorageSlotInput{
		WarehouseId: "11112222",
		Owner:       &owner,
		Location:    "Sandy",
	}))

	got, err := models.GetWarehouseItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "11112222", *got.StorageLocation)
	require.Equal(t, models.WarehouseStateSorting, got.State)

	// items in the sorting area stay where they are
	got, err = models.GetWarehouseItem(ctx, loose.ID)
	require.NoError(t, err)
	require.Equal(t, models.UnsortedLocation, *got.StorageLocation)
	require.Equal(t, models.WarehouseStateUnsorted, got.State)

	// password kept since none was sent
	ok, err := models.VerifyStorageSlotPassword(ctx, slot.ID, "1234")
	require.NoError(t, err)
	require.True(t, ok)

	err = models.UpdateStorageSlot(ctx, 999, &models.StorageSlotInput{WarehouseId: "11112222"})
	require.Equal(t, "Lagerplatz nicht gefunden", utils.MessageOf(err))
}

func TestStorageSlotDeleteReturnsItemsToSorting(t *testing.T) {
	ctx, _ := setupBoss(t)
	slot := addSlot(t, ctx, "12345678", "")
	item := addItem(t, ctx, "Gewehr", 1)
	require.NoError(t, models.AssignWarehouseLocation(ctx, item.ID, "12345678"))
	require.NoError(t, models.CompleteWarehouseItem(ctx, item.ID))

	moved, err := models.DeleteStorageSlot(ctx, slot.ID)
	require.NoError(t, err)
	require.Equal(t, 1, moved)

	got, err := models.GetWarehouseItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.WarehouseStateUnsorted, got.State)
	require.Equal(t, models.UnsortedLocation, *got.StorageLocation)

	_, err = models.DeleteStorageSlot(ctx, slot.ID)
	require.Equal(t, "Lagerplatz nicht gefunden", utils.MessageOf(err))
}

func TestWarehouseDelete(t *testing.T) {
	ctx, _ := setupBoss(t)
	item := addItem(t, ctx, "Gewehr", 1)

	require.NoError(t, models.UpdateWarehouseItem(ctx, item.ID, &models.UpdateWarehouseItemInput{Quantity: 4, UnitValue: decimal.NewFromInt(3)}))
	require.NoError(t, models.DeleteWarehouseItem(ctx, item.ID))
	err := models.DeleteWarehouseItem(ctx, item.ID)
	requireKind(t, utils.KindNotFound, err)
	require.Equal(t, "Artikel nicht gefunden", utils.MessageOf(err))
}

func TestWarehouseUpdateWithUnchangedValues(t *testing.T) {
	ctx, _ := setupBoss(t)
	item := addItem(t, ctx, "Gewehr", 2)

	same := &models.UpdateWarehouseItemInput{Quantity: 2, UnitValue: decimal.NewFromInt(10)}
	require.NoError(t, models.UpdateWarehouseItem(ctx, item.ID, same))
	require.NoError(t, models.UpdateWarehouseItem(ctx, item.ID, same))

	err := models.UpdateWarehouseItem(ctx, 999, same)
	requireKind(t, utils.KindNotFound, err)
	require.Equal(t, "Artikel nicht gefunden", utils.MessageOf(err))

	requireKind(t, utils.KindValidation,
		models.UpdateWarehouseItem(ctx, item.ID, &models.UpdateWarehouseItemInput{Quantity: -1}))
}

func TestWarehouseMutationsAreLogged(t *testing.T) {
	ctx, _ := setupBoss(t)
	addSlot(t, ctx, "12345678", "")
	slotRows := activityCount(t, ctx, models.ActionWarehouse)

	item := addItem(t, ctx, "Pistole", 2)
	require.Equal(t, slotRows+1, activityCount(t, ctx, models.ActionWarehouse))

	require.NoError(t, models.UpdateWarehouseItem(ctx, item.ID, &models.UpdateWarehouseItemInput{Quantity: 3, UnitValue: decimal.NewFromInt(10)}))
	require.Equal(t, slotRows+2, activityCount(t, ctx, models.ActionWarehouse))

	require.NoError(t, models.AssignWarehouseLocation(ctx, item.ID, "12345678"))
	require.NoError(t, models.CompleteWarehouseItem(ctx, item.ID))
	require.Equal(t, slotRows+4, activityCount(t, ctx, models.ActionWarehouse))

	require.NoError(t, models.DeleteWarehouseItem(ctx, item.ID))
	require.Equal(t, slotRows+5, activityCount(t, ctx, models.ActionWarehouse))

	entries, err := models.RecentActivity(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "boss Tester hat 3x Pistole aus dem Lager entfernt", entries[0].Description)

	// failed mutations leave no trail
	requireKind(t, utils.KindNotFound, models.DeleteWarehouseItem(ctx, item.ID))
	require.Equal(t, slotRows+5, activityCount(t, ctx, models.ActionWarehouse))
}

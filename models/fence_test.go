package models_test

import (
	"context"
	"testing"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func buy(t *testing.T, ctx context.Context, name string, qty int, price int64, warehoused bool) *models.FencePurchase {
	t.Helper()
	purchase, err := models.CreateFencePurchase(ctx, &models.NewFencePurchase{
		ItemName:          name,
		Quantity:          qty,
		UnitPrice:         decimal.NewFromInt(price),
		StoredInWarehouse: warehoused,
	})
	require.NoError(t, err)
	return purchase
}

func fenceGoods(t *testing.T, name string) []models.WarehouseItem {
	t.Helper()
	var items []models.WarehouseItem
	require.NoError(t, config.GetDB().
		Where("item_name = ? AND category = ?", name, models.FenceGoodsCategory).
		Order("id").Find(&items).Error)
	return items
}

func TestPurchaseTotalsAndWarehouseMerge(t *testing.T) {
	ctx, _ := setupBoss(t)

	first := buy(t, ctx, "Goldkette", 3, 100, true)
	requireDecimal(t, "300", first.TotalPrice)
	buy(t, ctx, "Goldkette", 2, 120, true)
	buy(t, ctx, "Goldkette", 7, 90, false)

	items := fenceGoods(t, "Goldkette")
	require.Len(t, items, 1)
	require.Equal(t, 5, items[0].Quantity)
	requireDecimal(t, "100", items[0].UnitValue)
	require.Equal(t, models.WarehouseStateUnsorted, items[0].State)
	require.Equal(t, models.UnsortedLocation, *items[0].StorageLocation)

	summary, err := models.GetFencePurchaseSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalPurchases)
	require.Equal(t, 12, summary.TotalItems)
	requireDecimal(t, "1170", summary.TotalSpent)
	require.Equal(t, 3, activityCount(t, ctx, models.ActionFencePurchase))
}

func TestSaleReducesMatchedLotAndWarehouse(t *testing.T) {
	ctx, _ := setupBoss(t)
	lot := buy(t, ctx, "Uhr", 10, 50, true)

	sale, err := models.CreateFenceSale(ctx, &models.NewFenceSale{FenceSaleLine: models.FenceSaleLine{
		ItemName:  "Uhr",
		Quantity:  4,
		UnitCost:  decimal.NewFromInt(50),
		UnitPrice: decimal.NewFromInt(80),
	}})
	require.NoError(t, err)
	requireDecimal(t, "320", sale.TotalPrice)
	requireDecimal(t, "120", sale.Profit)
	require.Equal(t, lot.ID, *sale.PurchaseId)

	remaining, err := models.GetFencePurchase(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, 6, remaining.Quantity)
	items := fenceGoods(t, "Uhr")
	require.Len(t, items, 1)
	require.Equal(t, 6, items[0].Quantity)

	_, err = models.CreateFenceSale(ctx, &models.NewFenceSale{FenceSaleLine: models.FenceSaleLine{
		PurchaseId: &lot.ID,
		ItemName:   "Uhr",
		Quantity:   6,
		UnitCost:   decimal.NewFromInt(50),
		UnitPrice:  decimal.NewFromInt(80),
	}})
	require.NoError(t, err)

	_, err = models.GetFencePurchase(ctx, lot.ID)
	requireKind(t, utils.KindNotFound, err)
	require.Empty(t, fenceGoods(t, "Uhr"))

	summary, err := models.GetFenceSalesSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalSales)
	requireDecimal(t, "800", summary.TotalRevenue)
	requireDecimal(t, "300", summary.TotalProfit)
}

func TestSaleDrawsFromOldestLot(t *testing.T) {
	ctx, _ := setupBoss(t)
	older := buy(t, ctx, "Ring", 2, 10, false)
	newer := buy(t, ctx, "Ring", 5, 10, false)

	_, err := models.CreateFenceSale(ctx, &models.NewFenceSale{FenceSaleLine: models.FenceSaleLine{
		ItemName: "Ring", Quantity: 1, UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(15),
	}})
	require.NoError(t, err)

	p, err := models.GetFencePurchase(ctx, older.ID)
	require.NoError(t, err)
	require.Equal(t, 1, p.Quantity)
	p, err = models.GetFencePurchase(ctx, newer.ID)
	require.NoError(t, err)
	require.Equal(t, 5, p.Quantity)
}

func TestSaleLargerThanLotIsRejected(t *testing.T) {
	ctx, _ := setupBoss(t)
	lot := buy(t, ctx, "Laptop", 2, 300, true)

	_, err := models.CreateFenceSale(ctx, &models.NewFenceSale{FenceSaleLine: models.FenceSaleLine{
		ItemName: "Laptop", Quantity: 3, UnitCost: decimal.NewFromInt(300), UnitPrice: decimal.NewFromInt(400),
	}})
	requireKind(t, utils.KindValidation, err)
	require.Equal(t, "Nicht genug Ware im Bestand", utils.MessageOf(err))

	p, err := models.GetFencePurchase(ctx, lot.ID)
	require.NoError(t, err)
	require.Equal(t, 2, p.Quantity)
	sales, err := models.ListFenceSales(ctx)
	require.NoError(t, err)
	require.Empty(t, sales)
}

func TestSaleWithoutLotIsStillRecorded(t *testing.T) {
	ctx, boss := setupBoss(t)

	sale, err := models.CreateFenceSale(ctx, &models.NewFenceSale{FenceSaleLine: models.FenceSaleLine{
		ItemName: "Handy", Quantity: 1, UnitCost: decimal.NewFromInt(20), UnitPrice: decimal.NewFromInt(35),
	}})
	require.NoError(t, err)
	require.Nil(t, sale.PurchaseId)

	sales, err := models.ListFenceSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Equal(t, boss.FullName, *sales[0].FullName)

	require.NoError(t, models.DeleteFenceSale(ctx, sale.ID))
	err = models.DeleteFenceSale(ctx, sale.ID)
	requireKind(t, utils.KindNotFound, err)
	require.Equal(t, "Verkauf nicht gefunden", utils.MessageOf(err))
}

func TestSalesCheckoutIsAllOrNothing(t *testing.T) {
	ctx, _ := setupBoss(t)
	chain := buy(t, ctx, "Kette", 3, 10, true)
	phone := buy(t, ctx, "Handy", 1, 10, false)

	_, err := models.CheckoutFenceSales(ctx, &models.FenceSaleCart{Items: []models.FenceSaleLine{
		{ItemName: "Kette", Quantity: 2, UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(20)},
		{ItemName: "Handy", Quantity: 2, UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(20)},
	}})
	requireKind(t, utils.KindValidation, err)

	p, err := models.GetFencePurchase(ctx, chain.ID)
	require.NoError(t, err)
	require.Equal(t, 3, p.Quantity)
	require.Equal(t, 3, fenceGoods(t, "Kette")[0].Quantity)

	result, err := models.CheckoutFenceSales(ctx, &models.FenceSaleCart{Items: []models.FenceSaleLine{
		{ItemName: "Kette", Quantity: 2, UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(20)},
		{ItemName: "Kette", Quantity: 1, UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(20)},
		{PurchaseId: &phone.ID, ItemName: "Handy", Quantity: 1, UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(25)},
	}})
	require.NoError(t, err)
	require.Len(t, result.Ids, 3)
	require.Equal(t, 4, result.TotalQuantity)
	requireDecimal(t, "85", result.TotalPrice)
	requireDecimal(t, "45", result.TotalProfit)

	_, err = models.GetFencePurchase(ctx, chain.ID)
	requireKind(t, utils.KindNotFound, err)
	require.Empty(t, fenceGoods(t, "Kette"))
}

func TestPurchaseCheckoutRollsBackOnInvalidLine(t *testing.T) {
	ctx, _ := setupBoss(t)

	_, err := models.CheckoutFencePurchases(ctx, &models.FencePurchaseCart{
		StoredInWarehouse: true,
		Items: []models.FencePurchaseLine{
			{ItemName: "Kette", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ItemName: "Ring", Quantity: 0, UnitPrice: decimal.NewFromInt(10)},
		},
	})
	requireKind(t, utils.KindValidation, err)

	purchases, err := models.ListFencePurchases(ctx)
	require.NoError(t, err)
	require.Empty(t, purchases)
	require.Empty(t, fenceGoods(t, "Kette"))

	result, err := models.CheckoutFencePurchases(ctx, &models.FencePurchaseCart{
		Items: []models.FencePurchaseLine{
			{ItemName: "Kette", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{ItemName: "Ring", Quantity: 1, UnitPrice: decimal.NewFromInt(15)},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Ids, 2)
	require.Equal(t, 3, result.TotalQuantity)
	requireDecimal(t, "35", result.TotalPrice)
}

func TestPurchaseUpdateAndDelete(t *testing.T) {
	ctx, _ := setupBoss(t)
	lot := buy(t, ctx, "Uhr", 1, 10, false)

	require.NoError(t, models.UpdateFencePurchase(ctx, lot.ID, &models.NewFencePurchase{
		ItemName: "Uhr", Quantity: 4, UnitPrice: decimal.NewFromInt(25),
	}))
	p, err := models.GetFencePurchase(ctx, lot.ID)
	require.NoError(t, err)
	requireDecimal(t, "100", p.TotalPrice)

	err = models.UpdateFencePurchase(ctx, 999, &models.NewFencePurchase{ItemName: "Uhr", Quantity: 1})
	require.Equal(t, "Ankauf nicht gefunden", utils.MessageOf(err))

	require.NoError(t, models.DeleteFencePurchase(ctx, lot.ID))
	err = models.DeleteFencePurchase(ctx, lot.ID)
	requireKind(t, utils.KindNotFound, err)
}

func TestFenceCorrectionsAreLogged(t *testing.T) {
	ctx, _ := setupBoss(t)
	lot := buy(t, ctx, "Kette", 2, 40, false)
	require.Equal(t, 1, activityCount(t, ctx, models.ActionFencePurchase))

	// unchanged values are still a successful edit
	same := &models.NewFencePurchase{ItemName: "Kette", Quantity: 2, UnitPrice: decimal.NewFromInt(40)}
	require.NoError(t, models.UpdateFencePurchase(ctx, lot.ID, same))
	require.NoError(t, models.UpdateFencePurchase(ctx, lot.ID, same))
	require.Equal(t, 3, activityCount(t, ctx, models.ActionFencePurchase))

	sale, err := models.CreateFenceSale(ctx, &models.NewFenceSale{FenceSaleLine: models.FenceSaleLine{
		ItemName: "Ring", Quantity: 1, UnitPrice: decimal.NewFromInt(90),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, activityCount(t, ctx, models.ActionFenceSale))

	require.NoError(t, models.DeleteFenceSale(ctx, sale.ID))
	require.Equal(t, 2, activityCount(t, ctx, models.ActionFenceSale))
	entries, err := models.RecentActivity(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Verkauf gelöscht: 1x Ring für €90.00", entries[0].Description)
	require.Equal(t, "Verkauf nicht gefunden", utils.MessageOf(models.DeleteFenceSale(ctx, sale.ID)))

	require.NoError(t, models.DeleteFencePurchase(ctx, lot.ID))
	require.Equal(t, 4, activityCount(t, ctx, models.ActionFencePurchase))
	require.Equal(t, "Ankauf nicht gefunden", utils.MessageOf(models.DeleteFencePurchase(ctx, lot.ID)))
	require.Equal(t, 4, activityCount(t, ctx, models.ActionFencePurchase))
}

func TestTemplatesCacheIsInvalidatedOnChange(t *testing.T) {
	ctx, _ := setupBoss(t)

	created, err := models.CreateFenceTemplate(ctx, &models.FenceTemplateInput{
		ItemName: "Goldbarren", Category: "Schmuck", TypicalPrice: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	_, err = models.CreateFenceTemplate(ctx, &models.FenceTemplateInput{
		ItemName: "Armband", Category: "Schmuck", IsActive: utils.NewFalse(),
	})
	require.NoError(t, err)

	active, err := models.ListActiveFenceTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	cached, err := utils.RetrieveRedisList[models.FenceItemTemplate]("active")
	require.NoError(t, err)
	require.Len(t, cached, 1)

	_, err = models.UpdateFenceTemplate(ctx, created.ID, &models.FenceTemplateInput{
		ItemName: "Goldbarren", Category: "Schmuck", IsActive: utils.NewFalse(),
	})
	require.NoError(t, err)

	active, err = models.ListActiveFenceTemplates(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := models.ListAllFenceTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = models.GetFenceTemplate(ctx, 999)
	require.Equal(t, "Produkt nicht gefunden", utils.MessageOf(err))
	require.NoError(t, models.DeleteFenceTemplate(ctx, created.ID))
	requireKind(t, utils.KindNotFound, models.DeleteFenceTemplate(ctx, created.ID))
}

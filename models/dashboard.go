package models

import (
	"context"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
)

type OverviewStats struct {
	TotalMembers   int64           `json:"total_members"`
	HeroStock      int             `json:"hero_stock"`
	FencePending   decimal.Decimal `json:"fence_pending"`
	WarehouseValue decimal.Decimal `json:"warehouse_value"`
}

type DashboardStats struct {
	TotalMembers             int64           `json:"total_members"`
	HeroStock                int             `json:"hero_stock"`
	OutstandingDistributions int64           `json:"outstanding_distributions"`
	PendingPayments          decimal.Decimal `json:"pending_payments"`
	FencePurchasesToday      decimal.Decimal `json:"fence_purchases_today"`
	WarehouseValue           decimal.Decimal `json:"warehouse_value"`
}

type sumResult struct {
	Total decimal.Decimal
}

func countActiveMembers(ctx context.Context) (int64, error) {
	return utils.ResourceCountWhere[Member](ctx, "is_active = ?", true)
}

func warehouseValue(ctx context.Context) (decimal.Decimal, error) {
	db := config.GetDB()
	var r sumResult
	err := db.WithContext(ctx).Model(&WarehouseItem{}).
		Select("COALESCE(SUM(quantity * unit_value), 0) AS total").
		Scan(&r).Error
	return r.Total, err
}

func fencePurchasesToday(ctx context.Context) (decimal.Decimal, error) {
	start, end := utils.StartOfDay(time.Now())
	db := config.GetDB()
	var r sumResult
	err := db.WithContext(ctx).Model(&FencePurchase{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Where("purchase_date >= ? AND purchase_date < ?", start, end).
		Scan(&r).Error
	return r.Total, err
}

func GetOverviewStats(ctx context.Context) (*OverviewStats, error) {
	members, err := countActiveMembers(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := GetHeroInventory(ctx)
	if err != nil {
		return nil, err
	}
	fence, err := fencePurchasesToday(ctx)
	if err != nil {
		return nil, err
	}
	value, err := warehouseValue(ctx)
	if err != nil {
		return nil, err
	}
	return &OverviewStats{
		TotalMembers:   members,
		HeroStock:      inventory.Quantity,
		FencePending:   fence,
		WarehouseValue: value,
	}, nil
}

func GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	overview, err := GetOverviewStats(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := utils.ResourceCountWhere[HeroDistribution](ctx, "status = ?", DistributionStatusOutstanding)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var pending sumResult
	if err := db.WithContext(ctx).Model(&HeroSale{}).
		Select("COALESCE(SUM(gang_share), 0) AS total").
		Where("paid_to_gang = ?", false).
		Scan(&pending).Error; err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalMembers:             overview.TotalMembers,
		HeroStock:                overview.HeroStock,
		OutstandingDistributions: outstanding,
		PendingPayments:          pending.Total,
		FencePurchasesToday:      overview.FencePending,
		WarehouseValue:           overview.WarehouseValue,
	}, nil
}

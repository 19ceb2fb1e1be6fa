package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/metrics"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type FenceSale struct {
	ID         int             `gorm:"primary_key" json:"id"`
	PurchaseId *int            `gorm:"index" json:"purchase_id"`
	MemberId   *int            `gorm:"index" json:"member_id"`
	ItemName   string          `gorm:"size:150;not null;index" json:"item_name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_cost"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_price"`
	Profit     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"profit"`
	BuyerInfo  *string         `gorm:"size:255" json:"buyer_info"`
	SaleDate   time.Time       `gorm:"autoCreateTime;index" json:"sale_date"`
}

func (FenceSale) TableName() string {
	return "fence_sales"
}

type FenceSaleRow struct {
	FenceSale
	FullName *string `json:"full_name"`
}

type FenceSaleLine struct {
	PurchaseId *int            `json:"purchase_id"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type NewFenceSale struct {
	FenceSaleLine
	BuyerInfo *string `json:"buyer_info"`
}

type FenceSaleCart struct {
	BuyerInfo *string         `json:"buyer_info"`
	Items     []FenceSaleLine `json:"items"`
}

type FenceSalesSummary struct {
	TotalSales   int             `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
}

var (
	errFenceSaleNotFound = utils.NewNotFoundError("Verkauf nicht gefunden")
	errNotEnoughStock    = utils.NewValidationError("Nicht genug Ware im Bestand")
)

// findFenceLot returns the lot a sale draws from: the given purchase, or else
// the oldest purchase of the item. nil when nothing matches.
func findFenceLot(tx *gorm.DB, purchaseId *int, itemName string) (*FencePurchase, error) {
	q := tx.Model(&FencePurchase{})
	if purchaseId != nil && *purchaseId > 0 {
		q = q.Where("id = ?", *purchaseId)
	} else {
		q = q.Where("item_name = ?", itemName).Order("purchase_date ASC").Order("id ASC")
	}
	var lot FencePurchase
	err := q.Take(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// recordFenceSale books one sale inside tx. The matching lot is reduced or
// removed and a warehoused lot is mirrored into the warehouse table.
func recordFenceSale(ctx context.Context, tx *gorm.DB, line *FenceSaleLine, buyerInfo *string) (*FenceSale, error) {
	if err := validateFenceLine(line.ItemName, line.Quantity, line.UnitCost, line.UnitPrice); err != nil {
		return nil, err
	}
	itemName := strings.TrimSpace(line.ItemName)
	qty := decimal.NewFromInt(int64(line.Quantity))
	total := qty.Mul(line.UnitPrice)
	profit := total.Sub(qty.Mul(line.UnitCost))

	lot, err := findFenceLot(tx, line.PurchaseId, itemName)
	if err != nil {
		return nil, err
	}
	if lot != nil {
		if lot.Quantity < line.Quantity {
			return nil, errNotEnoughStock
		}
		remaining := lot.Quantity - line.Quantity
		if remaining == 0 {
			err = tx.Delete(&FencePurchase{}, lot.ID).Error
		} else {
			err = tx.Model(&FencePurchase{}).Where("id = ?", lot.ID).Update("quantity", remaining).Error
		}
		if err != nil {
			return nil, err
		}
		if lot.StoredInWarehouse {
			if err := releaseFenceGoods(tx, itemName, line.Quantity); err != nil {
				return nil, err
			}
		}
	}

	sale := FenceSale{
		PurchaseId: line.PurchaseId,
		MemberId:   utils.ActorIdFromContext(ctx),
		ItemName:   itemName,
		Quantity:   line.Quantity,
		UnitCost:   line.UnitCost,
		UnitPrice:  line.UnitPrice,
		TotalPrice: total,
		Profit:     profit,
		BuyerInfo:  buyerInfo,
	}
	if sale.PurchaseId == nil && lot != nil {
		sale.PurchaseId = &lot.ID
	}
	if err := tx.Create(&sale).Error; err != nil {
		return nil, err
	}
	if err := logActivity(ctx, tx, ActionFenceSale,
		fmt.Sprintf("Verkauf: %dx %s für €%s (Gewinn: €%s)", sale.Quantity, itemName,
			total.StringFixed(2), profit.StringFixed(2)),
		map[string]any{"sale_id": sale.ID, "purchase_id": sale.PurchaseId}); err != nil {
		return nil, err
	}
	return &sale, nil
}

func CreateFenceSale(ctx context.Context, input *NewFenceSale) (sale *FenceSale, err error) {
	ctx, finish := startSpan(ctx, "fence.sale",
		attribute.String("item_name", input.ItemName), attribute.Int("quantity", input.Quantity))
	defer func() { finish(err) }()

	release, err := utils.ObtainLock(ctx, "fence", "sales", "FenceSale", "CreateFenceSale")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = recordFenceSale(ctx, tx, &input.FenceSaleLine, input.BuyerInfo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// CheckoutFenceSales books a sales cart atomically. Lines drawing on the same
// lot see each other's reductions.
func CheckoutFenceSales(ctx context.Context, cart *FenceSaleCart) (result *FenceCheckoutResult, err error) {
	if len(cart.Items) == 0 {
		return nil, utils.NewValidationError("Warenkorb ist leer")
	}
	ctx, finish := startSpan(ctx, "fence.sale_checkout", attribute.Int("lines", len(cart.Items)))
	defer func() { finish(err) }()

	release, err := utils.ObtainLock(ctx, "fence", "sales", "FenceSale", "CheckoutFenceSales")
	if err != nil {
		return nil, err
	}
	defer release()

	result = &FenceCheckoutResult{TotalPrice: decimal.Zero, TotalProfit: decimal.Zero}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range cart.Items {
			sale, err := recordFenceSale(ctx, tx, &cart.Items[i], cart.BuyerInfo)
			if err != nil {
				return fmt.Errorf("position %d: %w", i+1, err)
			}
			result.Ids = append(result.Ids, sale.ID)
			result.TotalPrice = result.TotalPrice.Add(sale.TotalPrice)
			result.TotalProfit = result.TotalProfit.Add(sale.Profit)
			result.TotalQuantity += sale.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordCheckout("sale", len(cart.Items))
	return result, nil
}

func ListFenceSales(ctx context.Context) ([]*FenceSaleRow, error) {
	db := config.GetDB()
	var results []*FenceSaleRow
	err := db.WithContext(ctx).Table("fence_sales AS s").
		Select("s.*, m.full_name").
		Joins("LEFT JOIN members m ON s.member_id = m.id").
		Order("s.sale_date DESC").Order("s.id DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetFenceSalesSummary(ctx context.Context) (*FenceSalesSummary, error) {
	start, end := utils.StartOfDay(time.Now())
	db := config.GetDB()
	var summary FenceSalesSummary
	err := db.WithContext(ctx).Model(&FenceSale{}).
		Select("COUNT(*) AS total_sales, "+
			"COALESCE(SUM(total_price), 0) AS total_revenue, "+
			"COALESCE(SUM(profit), 0) AS total_profit").
		Where("sale_date >= ? AND sale_date < ?", start, end).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func DeleteFenceSale(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := utils.FetchModelTx[FenceSale](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errFenceSaleNotFound
			}
			return err
		}
		if err := tx.Delete(&FenceSale{}, id).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionFenceSale,
			fmt.Sprintf("Verkauf gelöscht: %dx %s für €%s", sale.Quantity, sale.ItemName, sale.TotalPrice.StringFixed(2)),
			map[string]any{"sale_id": id})
	})
}

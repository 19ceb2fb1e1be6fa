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

type FencePurchase struct {
	ID                int             `gorm:"primary_key" json:"id"`
	MemberId          *int            `gorm:"index" json:"member_id"`
	ItemName          string          `gorm:"size:150;not null;index" json:"item_name"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_price"`
	SellerInfo        *string         `gorm:"size:255" json:"seller_info"`
	StoredInWarehouse bool            `gorm:"not null;default:false" json:"stored_in_warehouse"`
	Notes             *string         `gorm:"type:text" json:"notes"`
	PurchaseDate      time.Time       `gorm:"autoCreateTime;index" json:"purchase_date"`
}

func (FencePurchase) TableName() string {
	return "fence_purchases"
}

type FencePurchaseRow struct {
	FencePurchase
	FullName *string `json:"full_name"`
}

type NewFencePurchase struct {
	ItemName          string          `json:"item_name"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	SellerInfo        *string         `json:"seller_info"`
	StoredInWarehouse bool            `json:"stored_in_warehouse"`
	Notes             *string         `json:"notes"`
}

type FencePurchaseLine struct {
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type FencePurchaseCart struct {
	SellerInfo        *string             `json:"seller_info"`
	StoredInWarehouse bool                `json:"stored_in_warehouse"`
	Notes             *string             `json:"notes"`
	Items             []FencePurchaseLine `json:"items"`
}

type FenceCheckoutResult struct {
	Ids           []int           `json:"ids"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
}

type FencePurchaseSummary struct {
	TotalPurchases int             `json:"total_purchases"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalItems     int             `json:"total_items"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
}

var errFencePurchaseNotFound = utils.NewNotFoundError("Ankauf nicht gefunden")

func validateFenceLine(itemName string, quantity int, prices ...decimal.Decimal) error {
	if strings.TrimSpace(itemName) == "" {
		return utils.NewValidationError("Artikelname ist erforderlich")
	}
	if quantity <= 0 {
		return errInvalidQuantity
	}
	for _, p := range prices {
		if p.IsNegative() {
			return utils.NewValidationError("Preis darf nicht negativ sein")
		}
	}
	return nil
}

// recordFencePurchase writes one purchase inside tx and mirrors it into the
// warehouse when requested.
func recordFencePurchase(ctx context.Context, tx *gorm.DB, input *NewFencePurchase) (*FencePurchase, error) {
	if err := validateFenceLine(input.ItemName, input.Quantity, input.UnitPrice); err != nil {
		return nil, err
	}
	itemName := strings.TrimSpace(input.ItemName)
	purchase := FencePurchase{
		MemberId:          utils.ActorIdFromContext(ctx),
		ItemName:          itemName,
		Quantity:          input.Quantity,
		UnitPrice:         input.UnitPrice,
		TotalPrice:        input.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
		SellerInfo:        input.SellerInfo,
		StoredInWarehouse: input.StoredInWarehouse,
		Notes:             input.Notes,
	}
	if err := tx.Create(&purchase).Error; err != nil {
		return nil, err
	}
	if purchase.StoredInWarehouse {
		if err := storeFenceGoods(tx, itemName, purchase.Quantity, purchase.UnitPrice); err != nil {
			return nil, err
		}
	}
	if err := logActivity(ctx, tx, ActionFencePurchase,
		fmt.Sprintf("Ankauf: %dx %s für €%s", purchase.Quantity, itemName, purchase.TotalPrice.StringFixed(2)),
		map[string]any{"purchase_id": purchase.ID, "stored_in_warehouse": purchase.StoredInWarehouse}); err != nil {
		return nil, err
	}
	return &purchase, nil
}

func CreateFencePurchase(ctx context.Context, input *NewFencePurchase) (*FencePurchase, error) {
	db := config.GetDB()
	var purchase *FencePurchase
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = recordFencePurchase(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// CheckoutFencePurchases books a whole purchase cart. Either every line is
// written or none is.
func CheckoutFencePurchases(ctx context.Context, cart *FencePurchaseCart) (result *FenceCheckoutResult, err error) {
	if len(cart.Items) == 0 {
		return nil, utils.NewValidationError("Warenkorb ist leer")
	}
	ctx, finish := startSpan(ctx, "fence.purchase_checkout", attribute.Int("lines", len(cart.Items)))
	defer func() { finish(err) }()

	result = &FenceCheckoutResult{TotalPrice: decimal.Zero, TotalProfit: decimal.Zero}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, line := range cart.Items {
			purchase, err := recordFencePurchase(ctx, tx, &NewFencePurchase{
				ItemName:          line.ItemName,
				Quantity:          line.Quantity,
				UnitPrice:         line.UnitPrice,
				SellerInfo:        cart.SellerInfo,
				StoredInWarehouse: cart.StoredInWarehouse,
				Notes:             cart.Notes,
			})
			if err != nil {
				return fmt.Errorf("position %d: %w", i+1, err)
			}
			result.Ids = append(result.Ids, purchase.ID)
			result.TotalPrice = result.TotalPrice.Add(purchase.TotalPrice)
			result.TotalQuantity += purchase.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordCheckout("purchase", len(cart.Items))
	return result, nil
}

func ListFencePurchases(ctx context.Context) ([]*FencePurchaseRow, error) {
	db := config.GetDB()
	var results []*FencePurchaseRow
	err := db.WithContext(ctx).Table("fence_purchases AS p").
		Select("p.*, m.full_name").
		Joins("LEFT JOIN members m ON p.member_id = m.id").
		Order("p.purchase_date DESC").Order("p.id DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetFencePurchase(ctx context.Context, id int) (*FencePurchase, error) {
	purchase, err := utils.FetchModel[FencePurchase](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, errFencePurchaseNotFound
		}
		return nil, err
	}
	return purchase, nil
}

// UpdateFencePurchase overwrites the lot and recomputes its total. The
// warehouse mirror is left alone.
func UpdateFencePurchase(ctx context.Context, id int, input *NewFencePurchase) error {
	if err := validateFenceLine(input.ItemName, input.Quantity, input.UnitPrice); err != nil {
		return err
	}
	itemName := strings.TrimSpace(input.ItemName)
	total := input.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := utils.FetchModelTx[FencePurchase](tx, id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errFencePurchaseNotFound
			}
			return err
		}
		if err := tx.Model(&FencePurchase{}).Where("id = ?", id).Updates(map[string]interface{}{
			"item_name":           itemName,
			"quantity":            input.Quantity,
			"unit_price":          input.UnitPrice,
			"total_price":         total,
			"seller_info":         input.SellerInfo,
			"stored_in_warehouse": input.StoredInWarehouse,
			"notes":               input.Notes,
		}).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionFencePurchase,
			fmt.Sprintf("Ankauf bearbeitet: %dx %s für €%s", input.Quantity, itemName, total.StringFixed(2)),
			map[string]any{"purchase_id": id})
	})
}

func DeleteFencePurchase(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase, err := utils.FetchModelTx[FencePurchase](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errFencePurchaseNotFound
			}
			return err
		}
		if err := tx.Delete(&FencePurchase{}, id).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionFencePurchase,
			fmt.Sprintf("Ankauf gelöscht: %dx %s", purchase.Quantity, purchase.ItemName),
			map[string]any{"purchase_id": id})
	})
}

// GetFencePurchaseSummary covers the current local day.
func GetFencePurchaseSummary(ctx context.Context) (*FencePurchaseSummary, error) {
	start, end := utils.StartOfDay(time.Now())
	db := config.GetDB()

	var summary FencePurchaseSummary
	err := db.WithContext(ctx).Model(&FencePurchase{}).
		Select("COUNT(*) AS total_purchases, "+
			"COALESCE(SUM(total_price), 0) AS total_spent, "+
			"COALESCE(SUM(quantity), 0) AS total_items").
		Where("purchase_date >= ? AND purchase_date < ?", start, end).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	sales, err := GetFenceSalesSummary(ctx)
	if err != nil {
		return nil, err
	}
	summary.TotalRevenue = sales.TotalRevenue
	summary.TotalProfit = sales.TotalProfit
	return &summary, nil
}

package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/metrics"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const heroInventoryId = 1

var (
	defaultHeroUnitCost       = decimal.NewFromInt(150)
	defaultHeroSalePrice      = decimal.NewFromInt(250)
	defaultHeroGangPercentage = decimal.NewFromInt(60)
	hundred                   = decimal.NewFromInt(100)
)

// HeroInventory is a single-row aggregate. Every write goes through
// saveHeroInventory, which bumps Version.
type HeroInventory struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Quantity       int             `gorm:"not null;default:0" json:"quantity"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	SalePrice      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"sale_price"`
	GangPercentage decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"gang_percentage"`
	Version        int             `gorm:"not null;default:0" json:"version"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (HeroInventory) TableName() string {
	return "hero_inventory"
}

type HeroDistribution struct {
	ID                int                `gorm:"primary_key" json:"id"`
	MemberId          *int               `gorm:"index" json:"member_id"`
	DeliveryNumber    int                `gorm:"not null;default:0;index" json:"delivery_number"`
	Quantity          int                `gorm:"not null" json:"quantity"`
	UnitCost          decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	TotalCost         decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	ExpectedSalePrice decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"expected_sale_price"`
	GangShare         decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"gang_share"`
	PaidAmount        decimal.Decimal    `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`
	Status            DistributionStatus `gorm:"size:20;not null;default:outstanding;index" json:"status"`
	Notes             *string            `gorm:"type:text" json:"notes"`
	Version           int                `gorm:"not null;default:0" json:"version"`
	DistributedDate   time.Time          `gorm:"autoCreateTime;index" json:"distributed_date"`
}

func (HeroDistribution) TableName() string {
	return "hero_distributions"
}

type HeroSale struct {
	ID          int             `gorm:"primary_key" json:"id"`
	MemberId    *int            `gorm:"index" json:"member_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"sale_price"`
	TotalSale   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_sale"`
	GangShare   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"gang_share"`
	MemberShare decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"member_share"`
	PaidToGang  bool            `gorm:"not null;default:false;index" json:"paid_to_gang"`
	PaymentDate *time.Time      `json:"payment_date"`
	SaleDate    time.Time       `gorm:"autoCreateTime;index" json:"sale_date"`
}

func (HeroSale) TableName() string {
	return "hero_sales"
}

type HeroDistributionRow struct {
	HeroDistribution
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
}

type HeroSaleRow struct {
	HeroSale
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
}

type UpdateHeroSettingsInput struct {
	SalePrice      decimal.Decimal `json:"sale_price"`
	GangPercentage decimal.Decimal `json:"gang_percentage"`
	Version        *int            `json:"version"`
}

type NewHeroDistribution struct {
	MemberId int     `json:"member_id" binding:"required"`
	Quantity int     `json:"quantity" binding:"required"`
	Notes    *string `json:"notes"`
}

type NewHeroSale struct {
	MemberId int `json:"member_id" binding:"required"`
	Quantity int `json:"quantity" binding:"required"`
}

type HeroPaymentStats struct {
	TotalExpected decimal.Decimal `json:"total_expected"`
	Paid          decimal.Decimal `json:"paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

type HeroPaymentResult struct {
	NewPaidAmount decimal.Decimal    `json:"new_paid_amount"`
	Status        DistributionStatus `json:"status"`
}

var errInvalidQuantity = utils.NewValidationError("Ungültige Menge")

func defaultHeroInventory() HeroInventory {
	return HeroInventory{
		ID:             heroInventoryId,
		Quantity:       0,
		UnitCost:       defaultHeroUnitCost,
		SalePrice:      defaultHeroSalePrice,
		GangPercentage: defaultHeroGangPercentage,
	}
}

// loadHeroInventory reads the singleton, creating it with defaults when missing.
func loadHeroInventory(tx *gorm.DB) (*HeroInventory, error) {
	var inventory HeroInventory
	err := tx.Where("id = ?", heroInventoryId).Take(&inventory).Error
	if err == nil {
		return &inventory, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	inventory = defaultHeroInventory()
	if err := tx.Create(&inventory).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, errStaleVersion
		}
		return nil, err
	}
	return &inventory, nil
}

func saveHeroInventory(tx *gorm.DB, inventory *HeroInventory, updates map[string]interface{}) error {
	updates["version"] = inventory.Version + 1
	res := tx.Model(&HeroInventory{}).
		Where("id = ? AND version = ?", inventory.ID, inventory.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleVersion
	}
	inventory.Version++
	if q, ok := updates["quantity"].(int); ok {
		inventory.Quantity = q
		metrics.SetHeroStock(q)
	}
	return nil
}

// mutateHeroInventory runs fn in a transaction on a fresh read of the singleton.
// A non-nil expectedVersion must match the stored version.
func mutateHeroInventory(ctx context.Context, expectedVersion *int, fn func(tx *gorm.DB, inventory *HeroInventory) error) error {
	db := config.GetDB()
	return retryOnStale("hero_inventory", expectedVersion != nil, func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			inventory, err := loadHeroInventory(tx)
			if err != nil {
				return err
			}
			if expectedVersion != nil && *expectedVersion != inventory.Version {
				return errStaleVersion
			}
			return fn(tx, inventory)
		})
	})
}

func GetHeroInventory(ctx context.Context) (*HeroInventory, error) {
	db := config.GetDB()
	var inventory *HeroInventory
	err := retryOnStale("hero_inventory", false, func() error {
		var err error
		inventory, err = loadHeroInventory(db.WithContext(ctx))
		return err
	})
	if err != nil {
		return nil, err
	}
	return inventory, nil
}

func SetHeroQuantity(ctx context.Context, quantity int, version *int) (*HeroInventory, error) {
	if quantity < 0 {
		return nil, errInvalidQuantity
	}
	var result HeroInventory
	err := mutateHeroInventory(ctx, version, func(tx *gorm.DB, inventory *HeroInventory) error {
		oldQuantity := inventory.Quantity
		if err := saveHeroInventory(tx, inventory, map[string]interface{}{"quantity": quantity}); err != nil {
			return err
		}
		result = *inventory

		diff := quantity - oldQuantity
		action := "reduziert"
		if diff > 0 {
			action = "erhöht"
		}
		if diff < 0 {
			diff = -diff
		}
		return logActivity(ctx, tx, ActionHeroAdjustment,
			fmt.Sprintf("Lagerbestand %s: von %d auf %d Hero (%d Stück)", action, oldQuantity, quantity, diff),
			map[string]any{"old_quantity": oldQuantity, "new_quantity": quantity})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func UpdateHeroSettings(ctx context.Context, input *UpdateHeroSettingsInput) (*HeroInventory, error) {
	if input.SalePrice.IsNegative() {
		return nil, utils.NewValidationError("Verkaufspreis darf nicht negativ sein")
	}
	if input.GangPercentage.IsNegative() || input.GangPercentage.GreaterThan(hundred) {
		return nil, utils.NewValidationError("Gang-Anteil muss zwischen 0 und 100 liegen")
	}
	var result HeroInventory
	err := mutateHeroInventory(ctx, input.Version, func(tx *gorm.DB, inventory *HeroInventory) error {
		if err := saveHeroInventory(tx, inventory, map[string]interface{}{
			"sale_price":      input.SalePrice,
			"gang_percentage": input.GangPercentage,
		}); err != nil {
			return err
		}
		inventory.SalePrice = input.SalePrice
		inventory.GangPercentage = input.GangPercentage
		result = *inventory
		return logActivity(ctx, tx, ActionHeroSettings,
			fmt.Sprintf("Hero-Einstellungen geändert: Verkaufspreis €%s, Gang-Anteil %s%%",
				input.SalePrice.StringFixed(2), input.GangPercentage.String()), nil)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// distributionStatus derives the payment status from the paid amount.
func distributionStatus(paid decimal.Decimal, gangShare decimal.Decimal) DistributionStatus {
	if paid.GreaterThanOrEqual(gangShare) {
		return DistributionStatusPaid
	}
	if paid.IsPositive() {
		return DistributionStatusPartial
	}
	return DistributionStatusOutstanding
}

func currentDeliveryNumber(tx *gorm.DB) (int, error) {
	var current int
	err := tx.Model(&HeroDelivery{}).Select("COALESCE(MAX(delivery_number), 0)").Scan(&current).Error
	return current, err
}

func CreateHeroDistribution(ctx context.Context, input *NewHeroDistribution) (*HeroDistribution, error) {
	if input.Quantity <= 0 {
		return nil, errInvalidQuantity
	}
	member, err := GetMember(ctx, input.MemberId)
	if err != nil {
		return nil, err
	}

	ctx, finish := startSpan(ctx, "hero.distribution",
		attribute.Int("member_id", input.MemberId), attribute.Int("quantity", input.Quantity))
	var distribution HeroDistribution
	err = mutateHeroInventory(ctx, nil, func(tx *gorm.DB, inventory *HeroInventory) error {
		if inventory.Quantity < input.Quantity {
			return utils.NewValidationError("Nicht genug Hero im Lager")
		}
		deliveryNumber, err := currentDeliveryNumber(tx)
		if err != nil {
			return err
		}

		qty := decimal.NewFromInt(int64(input.Quantity))
		expected := qty.Mul(inventory.SalePrice)
		memberId := member.ID
		distribution = HeroDistribution{
			MemberId:          &memberId,
			DeliveryNumber:    deliveryNumber,
			Quantity:          input.Quantity,
			UnitCost:          inventory.UnitCost,
			TotalCost:         qty.Mul(inventory.UnitCost),
			ExpectedSalePrice: expected,
			GangShare:         expected.Mul(inventory.GangPercentage).Div(hundred),
			PaidAmount:        decimal.Zero,
			Status:            DistributionStatusOutstanding,
			Notes:             input.Notes,
		}
		if err := tx.Create(&distribution).Error; err != nil {
			return err
		}
		if err := saveHeroInventory(tx, inventory, map[string]interface{}{
			"quantity": inventory.Quantity - input.Quantity,
		}); err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionHeroDistribution,
			fmt.Sprintf("%d Hero an %s ausgegeben", input.Quantity, member.FullName),
			map[string]any{"distribution_id": distribution.ID, "member_id": member.ID})
	})
	finish(err)
	if err != nil {
		return nil, err
	}
	return &distribution, nil
}

func ListHeroDistributions(ctx context.Context) ([]*HeroDistributionRow, error) {
	db := config.GetDB()
	var results []*HeroDistributionRow
	err := db.WithContext(ctx).Table("hero_distributions AS d").
		Select("d.*, m.full_name, m.username").
		Joins("LEFT JOIN members m ON d.member_id = m.id").
		Order("d.distributed_date DESC").Order("d.id DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetHeroPaymentStats(ctx context.Context) (*HeroPaymentStats, error) {
	db := config.GetDB()
	var stats HeroPaymentStats
	err := db.WithContext(ctx).Model(&HeroDistribution{}).
		Select("COALESCE(SUM(gang_share), 0) AS total_expected, " +
			"COALESCE(SUM(paid_amount), 0) AS paid, " +
			"COALESCE(SUM(gang_share - paid_amount), 0) AS outstanding").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// BookHeroPayment adds amount to a distribution. Payments beyond the open
// gang share are rejected.
func BookHeroPayment(ctx context.Context, distributionId int, amount decimal.Decimal) (*HeroPaymentResult, error) {
	if !amount.IsPositive() {
		return nil, utils.NewValidationError("Ungültiger Betrag")
	}
	db := config.GetDB()
	var result HeroPaymentResult
	err := retryOnStale("hero_distribution", false, func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			distribution, err := utils.FetchModelTx[HeroDistribution](tx, distributionId)
			if err != nil {
				if errors.Is(err, utils.ErrorRecordNotFound) {
					return utils.NewNotFoundError("Ausgabe nicht gefunden")
				}
				return err
			}
			open := distribution.GangShare.Sub(distribution.PaidAmount)
			if amount.GreaterThan(open) {
				return utils.NewValidationError("Zahlung übersteigt den offenen Betrag")
			}
			newPaid := distribution.PaidAmount.Add(amount)
			status := distributionStatus(newPaid, distribution.GangShare)

			res := tx.Model(&HeroDistribution{}).
				Where("id = ? AND version = ?", distribution.ID, distribution.Version).
				Updates(map[string]interface{}{
					"paid_amount": newPaid,
					"status":      status,
					"version":     distribution.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleVersion
			}
			result = HeroPaymentResult{NewPaidAmount: newPaid, Status: status}

			memberName := "Unbekannt"
			if distribution.MemberId != nil {
				var member Member
				if err := tx.Select("full_name").Where("id = ?", *distribution.MemberId).Take(&member).Error; err == nil {
					memberName = member.FullName
				}
			}
			return logActivity(ctx, tx, ActionHeroPayment,
				fmt.Sprintf("$%s Zahlung von %s gebucht", amount.String(), memberName),
				map[string]any{"distribution_id": distribution.ID, "amount": amount, "status": status})
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func CreateHeroSale(ctx context.Context, input *NewHeroSale) (*HeroSale, error) {
	if input.Quantity <= 0 {
		return nil, errInvalidQuantity
	}
	member, err := GetMember(ctx, input.MemberId)
	if err != nil {
		return nil, err
	}
	inventory, err := GetHeroInventory(ctx)
	if err != nil {
		return nil, err
	}

	qty := decimal.NewFromInt(int64(input.Quantity))
	totalSale := qty.Mul(inventory.SalePrice)
	gangShare := totalSale.Mul(inventory.GangPercentage).Div(hundred)
	memberId := member.ID
	sale := HeroSale{
		MemberId:    &memberId,
		Quantity:    input.Quantity,
		UnitCost:    inventory.UnitCost,
		SalePrice:   inventory.SalePrice,
		TotalSale:   totalSale,
		GangShare:   gangShare,
		MemberShare: totalSale.Sub(gangShare),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionHeroSale,
			fmt.Sprintf("%s hat %d Hero verkauft für €%s (Gang: €%s, Mitglied: €%s)",
				member.FullName, input.Quantity, sale.TotalSale.StringFixed(2),
				sale.GangShare.StringFixed(2), sale.MemberShare.StringFixed(2)),
			map[string]any{"sale_id": sale.ID, "member_id": member.ID})
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func ListHeroSales(ctx context.Context) ([]*HeroSaleRow, error) {
	db := config.GetDB()
	var results []*HeroSaleRow
	err := db.WithContext(ctx).Table("hero_sales AS s").
		Select("s.*, m.full_name, m.username").
		Joins("LEFT JOIN members m ON s.member_id = m.id").
		Order("s.sale_date DESC").Order("s.id DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func MarkHeroSalePaid(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := utils.FetchModelTx[HeroSale](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return utils.NewNotFoundError("Verkauf nicht gefunden")
			}
			return err
		}
		if sale.PaidToGang {
			return nil
		}
		now := time.Now()
		if err := tx.Model(&HeroSale{ID: id}).Updates(map[string]interface{}{
			"paid_to_gang": true,
			"payment_date": now,
		}).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionHeroSalePaid,
			fmt.Sprintf("Hero-Verkauf #%d als bezahlt markiert (€%s)", id, sale.GangShare.StringFixed(2)), nil)
	})
}

package models

import (
	"context"
	"fmt"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type HeroDelivery struct {
	ID             int       `gorm:"primary_key" json:"id"`
	DeliveryNumber int       `gorm:"not null;uniqueIndex" json:"delivery_number"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	ReceivedBy     *int      `gorm:"index" json:"received_by"`
	DeliveryDate   time.Time `gorm:"autoCreateTime;index" json:"delivery_date"`
}

func (HeroDelivery) TableName() string {
	return "hero_deliveries"
}

type HeroDistributionArchive struct {
	ID                int                `gorm:"primary_key" json:"id"`
	OriginalId        int                `gorm:"not null" json:"original_id"`
	MemberId          *int               `gorm:"index" json:"member_id"`
	MemberName        *string            `gorm:"size:150" json:"member_name"`
	Quantity          int                `gorm:"not null" json:"quantity"`
	UnitCost          decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	TotalCost         decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	ExpectedSalePrice decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"expected_sale_price"`
	GangShare         decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"gang_share"`
	PaidAmount        decimal.Decimal    `gorm:"type:decimal(20,4);not null" json:"paid_amount"`
	Status            DistributionStatus `gorm:"size:20;not null" json:"status"`
	Notes             *string            `gorm:"type:text" json:"notes"`
	DistributedDate   time.Time          `gorm:"index" json:"distributed_date"`
	ArchivedBy        *int               `json:"archived_by"`
	ArchivedAt        time.Time          `gorm:"autoCreateTime" json:"archived_at"`
	DeliveryNumber    int                `gorm:"not null;index" json:"delivery_number"`
}

func (HeroDistributionArchive) TableName() string {
	return "hero_distributions_archive"
}

type HeroSalesArchive struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OriginalId     int             `gorm:"not null" json:"original_id"`
	MemberId       *int            `gorm:"index" json:"member_id"`
	MemberName     *string         `gorm:"size:150" json:"member_name"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	SalePrice      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"sale_price"`
	TotalSale      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_sale"`
	GangShare      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"gang_share"`
	MemberShare    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"member_share"`
	PaidToGang     bool            `gorm:"not null;default:false" json:"paid_to_gang"`
	SaleDate       time.Time       `gorm:"index" json:"sale_date"`
	ArchivedBy     *int            `json:"archived_by"`
	ArchivedAt     time.Time       `gorm:"autoCreateTime" json:"archived_at"`
	DeliveryNumber int             `gorm:"not null;index" json:"delivery_number"`
}

func (HeroSalesArchive) TableName() string {
	return "hero_sales_archive"
}

type HeroDeliveryRow struct {
	HeroDelivery
	ReceivedByName *string `json:"received_by_name"`
}

type HeroDistributionArchiveRow struct {
	HeroDistributionArchive
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
}

type HeroSalesArchiveRow struct {
	HeroSalesArchive
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
}

type HeroArchiveOverview struct {
	DeliveryNumber     int             `json:"delivery_number"`
	DeliveryQuantity   int             `json:"delivery_quantity"`
	DeliveryDate       time.Time       `json:"delivery_date"`
	ReceivedByName     *string         `json:"received_by_name"`
	TotalDistributions int             `json:"total_distributions"`
	TotalDistributed   int             `json:"total_distributed"`
	TotalSales         int             `json:"total_sales"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalGangShare     decimal.Decimal `json:"total_gang_share"`
}

type RestockResult struct {
	DeliveryNumber        int    `json:"deliveryNumber"`
	ArchivedDistributions int    `json:"archived_distributions"`
	ArchivedSales         int    `json:"archived_sales"`
	Message               string `json:"message"`
}

// RestockHero archives every live distribution and sale under the previous
// delivery number, empties the live tables, records the new delivery and
// sets the stock to quantity. All of it commits or none of it does.
func RestockHero(ctx context.Context, quantity int) (result *RestockResult, err error) {
	if quantity < 0 {
		return nil, errInvalidQuantity
	}
	ctx, finish := startSpan(ctx, "hero.restock", attribute.Int("quantity", quantity))
	defer func() { finish(err) }()

	release, err := utils.ObtainLock(ctx, "hero", "restock", "HeroArchive", "RestockHero")
	if err != nil {
		return nil, err
	}
	defer release()

	archivedBy := utils.ActorIdFromContext(ctx)
	err = mutateHeroInventory(ctx, nil, func(tx *gorm.DB, inventory *HeroInventory) error {
		previous, err := currentDeliveryNumber(tx)
		if err != nil {
			return err
		}
		next := previous + 1

		distributionCount, err := archiveHeroDistributions(tx, previous, archivedBy)
		if err != nil {
			return err
		}
		if distributionCount > 0 {
			if err := logActivity(ctx, tx, ActionHeroArchive,
				fmt.Sprintf("%d Verteilung(en) in Archiv verschoben (Lieferung #%d)", distributionCount, previous),
				map[string]any{"delivery_number": previous, "count": distributionCount}); err != nil {
				return err
			}
		}

		salesCount, err := archiveHeroSales(tx, previous, archivedBy)
		if err != nil {
			return err
		}
		if salesCount > 0 {
			if err := logActivity(ctx, tx, ActionHeroArchive,
				fmt.Sprintf("%d Verkauf/Abrechnung(en) in Archiv verschoben (Lieferung #%d)", salesCount, previous),
				map[string]any{"delivery_number": previous, "count": salesCount}); err != nil {
				return err
			}
		}

		delivery := HeroDelivery{
			DeliveryNumber: next,
			Quantity:       quantity,
			ReceivedBy:     archivedBy,
		}
		if err := tx.Create(&delivery).Error; err != nil {
			if utils.IsDuplicateKeyError(err) {
				return errStaleVersion
			}
			return err
		}
		if err := logActivity(ctx, tx, ActionHeroDelivery,
			fmt.Sprintf("Neue Lieferung #%d erhalten: %d Hero", next, quantity),
			map[string]any{"delivery_number": next, "quantity": quantity}); err != nil {
			return err
		}

		if err := saveHeroInventory(tx, inventory, map[string]interface{}{"quantity": quantity}); err != nil {
			return err
		}
		if err := logActivity(ctx, tx, ActionHeroRestock,
			fmt.Sprintf("Lager auf %d Hero gesetzt (Lieferung #%d)", quantity, next), nil); err != nil {
			return err
		}

		result = &RestockResult{
			DeliveryNumber:        next,
			ArchivedDistributions: distributionCount,
			ArchivedSales:         salesCount,
			Message: fmt.Sprintf("Lieferung #%d erfasst - %d Verteilungen und %d Verkäufe archiviert",
				next, distributionCount, salesCount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func archiveHeroDistributions(tx *gorm.DB, deliveryNumber int, archivedBy *int) (int, error) {
	var rows []*HeroDistributionRow
	if err := tx.Table("hero_distributions AS d").
		Select("d.*, m.full_name, m.username").
		Joins("LEFT JOIN members m ON d.member_id = m.id").
		Order("d.id").
		Scan(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	archives := make([]HeroDistributionArchive, 0, len(rows))
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		archives = append(archives, HeroDistributionArchive{
			OriginalId:        r.ID,
			MemberId:          r.MemberId,
			MemberName:        r.FullName,
			Quantity:          r.Quantity,
			UnitCost:          r.UnitCost,
			TotalCost:         r.TotalCost,
			ExpectedSalePrice: r.ExpectedSalePrice,
			GangShare:         r.GangShare,
			PaidAmount:        r.PaidAmount,
			Status:            r.Status,
			Notes:             r.Notes,
			DistributedDate:   r.DistributedDate,
			ArchivedBy:        archivedBy,
			DeliveryNumber:    deliveryNumber,
		})
	}
	if err := tx.CreateInBatches(&archives, 100).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&HeroDistribution{}).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func archiveHeroSales(tx *gorm.DB, deliveryNumber int, archivedBy *int) (int, error) {
	var rows []*HeroSaleRow
	if err := tx.Table("hero_sales AS s").
		Select("s.*, m.full_name, m.username").
		Joins("LEFT JOIN members m ON s.member_id = m.id").
		Order("s.id").
		Scan(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	archives := make([]HeroSalesArchive, 0, len(rows))
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		archives = append(archives, HeroSalesArchive{
			OriginalId:     r.ID,
			MemberId:       r.MemberId,
			MemberName:     r.FullName,
			Quantity:       r.Quantity,
			UnitCost:       r.UnitCost,
			SalePrice:      r.SalePrice,
			TotalSale:      r.TotalSale,
			GangShare:      r.GangShare,
			MemberShare:    r.MemberShare,
			PaidToGang:     r.PaidToGang,
			SaleDate:       r.SaleDate,
			ArchivedBy:     archivedBy,
			DeliveryNumber: deliveryNumber,
		})
	}
	if err := tx.CreateInBatches(&archives, 100).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("id IN ?", ids).Delete(&HeroSale{}).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func ListHeroDeliveries(ctx context.Context) ([]*HeroDeliveryRow, error) {
	db := config.GetDB()
	var results []*HeroDeliveryRow
	err := db.WithContext(ctx).Table("hero_deliveries AS d").
		Select("d.*, m.full_name AS received_by_name").
		Joins("LEFT JOIN members m ON d.received_by = m.id").
		Order("d.delivery_number DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListArchivedDistributions returns every archived distribution, or only those of
// deliveryNumber when it is set.
func ListArchivedDistributions(ctx context.Context, deliveryNumber *int) ([]*HeroDistributionArchiveRow, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Table("hero_distributions_archive AS a").
		Select("a.*, m.full_name, m.username").
		Joins("LEFT JOIN members m ON a.member_id = m.id")
	if deliveryNumber != nil {
		q = q.Where("a.delivery_number = ?", *deliveryNumber)
	}
	var results []*HeroDistributionArchiveRow
	if err := q.Order("a.distributed_date DESC").Order("a.id DESC").Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func ListArchivedSales(ctx context.Context, deliveryNumber *int) ([]*HeroSalesArchiveRow, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Table("hero_sales_archive AS a").
		Select("a.*, m.full_name, m.username").
		Joins("LEFT JOIN members m ON a.member_id = m.id")
	if deliveryNumber != nil {
		q = q.Where("a.delivery_number = ?", *deliveryNumber)
	}
	var results []*HeroSalesArchiveRow
	if err := q.Order("a.sale_date DESC").Order("a.id DESC").Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type archiveAggregate struct {
	DeliveryNumber int
	RowCount       int
	Quantity       int
	Revenue        decimal.Decimal
	GangShare      decimal.Decimal
}

// GetHeroArchiveOverview aggregates each delivery's archived rows. A row archived
// under number N was distributed or sold out of delivery N; the two tables are
// summed separately so they cannot multiply each other.
func GetHeroArchiveOverview(ctx context.Context) ([]*HeroArchiveOverview, error) {
	deliveries, err := ListHeroDeliveries(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var distAggs []*archiveAggregate
	if err := db.WithContext(ctx).Model(&HeroDistributionArchive{}).
		Select("delivery_number, COUNT(*) AS row_count, COALESCE(SUM(quantity), 0) AS quantity").
		Group("delivery_number").
		Scan(&distAggs).Error; err != nil {
		return nil, err
	}
	var saleAggs []*archiveAggregate
	if err := db.WithContext(ctx).Model(&HeroSalesArchive{}).
		Select("delivery_number, COUNT(*) AS row_count, COALESCE(SUM(total_sale), 0) AS revenue, COALESCE(SUM(gang_share), 0) AS gang_share").
		Group("delivery_number").
		Scan(&saleAggs).Error; err != nil {
		return nil, err
	}

	distByNo := make(map[int]*archiveAggregate, len(distAggs))
	for _, a := range distAggs {
		distByNo[a.DeliveryNumber] = a
	}
	saleByNo := make(map[int]*archiveAggregate, len(saleAggs))
	for _, a := range saleAggs {
		saleByNo[a.DeliveryNumber] = a
	}

	results := make([]*HeroArchiveOverview, 0, len(deliveries))
	for _, d := range deliveries {
		overview := HeroArchiveOverview{
			DeliveryNumber:   d.DeliveryNumber,
			DeliveryQuantity: d.Quantity,
			DeliveryDate:     d.DeliveryDate,
			ReceivedByName:   d.ReceivedByName,
			TotalRevenue:     decimal.Zero,
			TotalGangShare:   decimal.Zero,
		}
		if a, ok := distByNo[d.DeliveryNumber]; ok {
			overview.TotalDistributions = a.RowCount
			overview.TotalDistributed = a.Quantity
		}
		if a, ok := saleByNo[d.DeliveryNumber]; ok {
			overview.TotalSales = a.RowCount
			overview.TotalRevenue = a.Revenue
			overview.TotalGangShare = a.GangShare
		}
		results = append(results, &overview)
	}
	return results, nil
}

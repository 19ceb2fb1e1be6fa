package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/reports"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type heroQuantityRequest struct {
	Quantity int  `json:"quantity"`
	Version  *int `json:"version"`
}

type heroPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func heroInventory(c *gin.Context) {
	inventory, err := models.GetHeroInventory(c.Request.Context())
	if err != nil {
		respondError(c, "Hero", "GetHeroInventory", err, "")
		return
	}
	c.JSON(http.StatusOK, inventory)
}

func restockHero(c *gin.Context) {
	var req heroQuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := models.RestockHero(c.Request.Context(), req.Quantity)
	if err != nil {
		respondError(c, "Hero", "RestockHero", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        result.Message,
		"deliveryNumber": result.DeliveryNumber,
	})
}

func setHeroQuantity(c *gin.Context) {
	var req heroQuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	inventory, err := models.SetHeroQuantity(c.Request.Context(), req.Quantity, req.Version)
	if err != nil {
		respondError(c, "Hero", "SetHeroQuantity", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inventory": inventory})
}

func updateHeroSettings(c *gin.Context) {
	var input models.UpdateHeroSettingsInput
	if !bindJSON(c, &input) {
		return
	}
	inventory, err := models.UpdateHeroSettings(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Hero", "UpdateHeroSettings", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inventory": inventory})
}

func createHeroDistribution(c *gin.Context) {
	var input models.NewHeroDistribution
	if !bindJSON(c, &input) {
		return
	}
	distribution, err := models.CreateHeroDistribution(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Hero", "CreateHeroDistribution", err, "Mitglied nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "distribution": distribution})
}

func listHeroDistributions(c *gin.Context) {
	rows, err := models.ListHeroDistributions(c.Request.Context())
	if err != nil {
		respondError(c, "Hero", "ListHeroDistributions", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func heroPaymentStats(c *gin.Context) {
	stats, err := models.GetHeroPaymentStats(c.Request.Context())
	if err != nil {
		respondError(c, "Hero", "GetHeroPaymentStats", err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func bookHeroPayment(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req heroPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := models.BookHeroPayment(c.Request.Context(), id, req.Amount)
	if err != nil {
		respondError(c, "Hero", "BookHeroPayment", err, "Ausgabe nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Zahlung verbucht",
		"new_paid_amount": result.NewPaidAmount,
		"status":          result.Status,
	})
}

func createHeroSale(c *gin.Context) {
	var input models.NewHeroSale
	if !bindJSON(c, &input) {
		return
	}
	sale, err := models.CreateHeroSale(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Hero", "CreateHeroSale", err, "Mitglied nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sale": sale})
}

func listHeroSales(c *gin.Context) {
	rows, err := models.ListHeroSales(c.Request.Context())
	if err != nil {
		respondError(c, "Hero", "ListHeroSales", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func markHeroSalePaid(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.MarkHeroSalePaid(c.Request.Context(), id); err != nil {
		respondError(c, "Hero", "MarkHeroSalePaid", err, "Verkauf nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verkauf als bezahlt markiert"})
}

func listHeroDeliveries(c *gin.Context) {
	rows, err := models.ListHeroDeliveries(c.Request.Context())
	if err != nil {
		respondError(c, "Hero", "ListHeroDeliveries", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// optionalDeliveryNumber reads the optional :deliveryNumber segment.
func optionalDeliveryNumber(c *gin.Context) (*int, bool) {
	raw := c.Param("deliveryNumber")
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		badRequest(c, "Ungültige Liefernummer")
		return nil, false
	}
	return &n, true
}

func listArchivedDistributions(c *gin.Context) {
	deliveryNumber, ok := optionalDeliveryNumber(c)
	if !ok {
		return
	}
	rows, err := models.ListArchivedDistributions(c.Request.Context(), deliveryNumber)
	if err != nil {
		respondError(c, "Hero", "ListArchivedDistributions", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func listArchivedSales(c *gin.Context) {
	deliveryNumber, ok := optionalDeliveryNumber(c)
	if !ok {
		return
	}
	rows, err := models.ListArchivedSales(c.Request.Context(), deliveryNumber)
	if err != nil {
		respondError(c, "Hero", "ListArchivedSales", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func heroArchiveOverview(c *gin.Context) {
	rows, err := models.GetHeroArchiveOverview(c.Request.Context())
	if err != nil {
		respondError(c, "Hero", "GetHeroArchiveOverview", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func exportHeroArchive(c *gin.Context) {
	deliveryNumber, ok := pathId(c, "deliveryNumber")
	if !ok {
		return
	}
	f, err := reports.ArchiveWorkbook(c.Request.Context(), deliveryNumber)
	if err != nil {
		respondError(c, "Hero", "ExportHeroArchive", err, "")
		return
	}
	c.Header("Content-Type", reports.ContentTypeXlsx)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=lieferung_%d.xlsx", deliveryNumber))
	if err := reports.Write(f, c.Writer); err != nil {
		_ = c.Error(err)
	}
}

package handlers

import (
	"net/http"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

func createFencePurchase(c *gin.Context) {
	var input models.NewFencePurchase
	if !bindJSON(c, &input) {
		return
	}
	purchase, err := models.CreateFencePurchase(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Fence", "CreateFencePurchase", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"purchase_id": purchase.ID,
		"total_price": purchase.TotalPrice,
	})
}

func checkoutFencePurchases(c *gin.Context) {
	var cart models.FencePurchaseCart
	if !bindJSON(c, &cart) {
		return
	}
	result, err := models.CheckoutFencePurchases(c.Request.Context(), &cart)
	if err != nil {
		respondError(c, "Fence", "CheckoutFencePurchases", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"purchase_ids":   result.Ids,
		"total_price":    result.TotalPrice,
		"total_quantity": result.TotalQuantity,
	})
}

func fencePurchaseSummary(c *gin.Context) {
	summary, err := models.GetFencePurchaseSummary(c.Request.Context())
	if err != nil {
		respondError(c, "Fence", "GetFencePurchaseSummary", err, "")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func listFencePurchases(c *gin.Context) {
	rows, err := models.ListFencePurchases(c.Request.Context())
	if err != nil {
		respondError(c, "Fence", "ListFencePurchases", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func getFencePurchase(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	purchase, err := models.GetFencePurchase(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Fence", "GetFencePurchase", err, "Ankauf nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func updateFencePurchase(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewFencePurchase
	if !bindJSON(c, &input) {
		return
	}
	if err := models.UpdateFencePurchase(c.Request.Context(), id, &input); err != nil {
		respondError(c, "Fence", "UpdateFencePurchase", err, "Ankauf nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ankauf aktualisiert"})
}

func deleteFencePurchase(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.DeleteFencePurchase(c.Request.Context(), id); err != nil {
		respondError(c, "Fence", "DeleteFencePurchase", err, "Ankauf nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ankauf gelöscht"})
}

func listActiveFenceTemplates(c *gin.Context) {
	rows, err := models.ListActiveFenceTemplates(c.Request.Context())
	if err != nil {
		respondError(c, "Fence", "ListActiveFenceTemplates", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func listAllFenceTemplates(c *gin.Context) {
	rows, err := models.ListAllFenceTemplates(c.Request.Context())
	if err != nil {
		respondError(c, "Fence", "ListAllFenceTemplates", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func getFenceTemplate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	template, err := models.GetFenceTemplate(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Fence", "GetFenceTemplate", err, "Produkt nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, template)
}

func createFenceTemplate(c *gin.Context) {
	var input models.FenceTemplateInput
	if !bindJSON(c, &input) {
		return
	}
	template, err := models.CreateFenceTemplate(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Fence", "CreateFenceTemplate", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": template.ID, "template": template})
}

func updateFenceTemplate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.FenceTemplateInput
	if !bindJSON(c, &input) {
		return
	}
	template, err := models.UpdateFenceTemplate(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "Fence", "UpdateFenceTemplate", err, "Produkt nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": template})
}

func deleteFenceTemplate(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.DeleteFenceTemplate(c.Request.Context(), id); err != nil {
		respondError(c, "Fence", "DeleteFenceTemplate", err, "Produkt nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Produkt gelöscht"})
}

func createFenceSale(c *gin.Context) {
	var input models.NewFenceSale
	if !bindJSON(c, &input) {
		return
	}
	sale, err := models.CreateFenceSale(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Fence", "CreateFenceSale", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"sale_id":     sale.ID,
		"total_price": sale.TotalPrice,
		"profit":      sale.Profit,
	})
}

func checkoutFenceSales(c *gin.Context) {
	var cart models.FenceSaleCart
	if !bindJSON(c, &cart) {
		return
	}
	result, err := models.CheckoutFenceSales(c.Request.Context(), &cart)
	if err != nil {
		respondError(c, "Fence", "CheckoutFenceSales", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"sale_ids":       result.Ids,
		"total_price":    result.TotalPrice,
		"total_quantity": result.TotalQuantity,
		"total_profit":   result.TotalProfit,
	})
}

func listFenceSales(c *gin.Context) {
	rows, err := models.ListFenceSales(c.Request.Context())
	if err != nil {
		respondError(c, "Fence", "ListFenceSales", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func fenceSalesSummary(c *gin.Context) {
	summary, err := models.GetFenceSalesSummary(c.Request.Context())
	if err != nil {
		respondError(c, "Fence", "GetFenceSalesSummary", err, "")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func deleteFenceSale(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.DeleteFenceSale(c.Request.Context(), id); err != nil {
		respondError(c, "Fence", "DeleteFenceSale", err, "Verkauf nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verkauf gelöscht"})
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

type locationRequest struct {
	StorageLocation string `json:"storage_location"`
}

func listWarehouse(c *gin.Context) {
	items, err := models.ListWarehouseItems(c.Request.Context())
	if err != nil {
		respondError(c, "Warehouse", "ListWarehouseItems", err, "")
		return
	}
	c.JSON(http.StatusOK, items)
}

func getWarehouseItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	item, err := models.GetWarehouseItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Warehouse", "GetWarehouseItem", err, "Artikel nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, item)
}

func createWarehouseItem(c *gin.Context) {
	var input models.NewWarehouseItem
	if !bindJSON(c, &input) {
		return
	}
	item, err := models.CreateWarehouseItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Warehouse", "CreateWarehouseItem", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": item.ID, "item": item})
}

func updateWarehouseItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.UpdateWarehouseItemInput
	if !bindJSON(c, &input) {
		return
	}
	if err := models.UpdateWarehouseItem(c.Request.Context(), id, &input); err != nil {
		respondError(c, "Warehouse", "UpdateWarehouseItem", err, "Artikel nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Artikel aktualisiert"})
}

func assignWarehouseLocation(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req locationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := models.AssignWarehouseLocation(c.Request.Context(), id, req.StorageLocation); err != nil {
		respondError(c, "Warehouse", "AssignWarehouseLocation", err, "Artikel nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Lagerplatz zugewiesen"})
}

func completeWarehouseItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.CompleteWarehouseItem(c.Request.Context(), id); err != nil {
		respondError(c, "Warehouse", "CompleteWarehouseItem", err, "Artikel nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Sortierung abgeschlossen"})
}

func finishSorting(c *gin.Context) {
	count, err := models.FinishSorting(c.Request.Context())
	if err != nil {
		respondError(c, "Warehouse", "FinishSorting", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
		"message": fmt.Sprintf("%d Artikel einsortiert", count),
	})
}

func deleteWarehouseItem(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.DeleteWarehouseItem(c.Request.Context(), id); err != nil {
		respondError(c, "Warehouse", "DeleteWarehouseItem", err, "Artikel nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Artikel gelöscht"})
}

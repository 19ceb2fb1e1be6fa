package handlers

import (
	"fmt"
	"net/http"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

type slotPasswordRequest struct {
	Password string `json:"password"`
}

func listStorageSlots(c *gin.Context) {
	slots, err := models.ListStorageSlots(c.Request.Context())
	if err != nil {
		respondError(c, "StorageSlots", "ListStorageSlots", err, "")
		return
	}
	c.JSON(http.StatusOK, slots)
}

func createStorageSlot(c *gin.Context) {
	var input models.StorageSlotInput
	if !bindJSON(c, &input) {
		return
	}
	slot, err := models.CreateStorageSlot(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "StorageSlots", "CreateStorageSlot", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": slot.ID, "message": "Lagerplatz erstellt"})
}

func updateStorageSlot(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.StorageSlotInput
	if !bindJSON(c, &input) {
		return
	}
	if err := models.UpdateStorageSlot(c.Request.Context(), id, &input); err != nil {
		respondError(c, "StorageSlots", "UpdateStorageSlot", err, "Lagerplatz nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Lagerplatz aktualisiert"})
}

func deleteStorageSlot(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	moved, err := models.DeleteStorageSlot(c.Request.Context(), id)
	if err != nil {
		respondError(c, "StorageSlots", "DeleteStorageSlot", err, "Lagerplatz nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"moved_items": moved,
		"message":     fmt.Sprintf("Lagerplatz gelöscht. %d Artikel wurden nach UNSORTED verschoben", moved),
	})
}

func verifyStorageSlotPassword(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req slotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	valid, err := models.VerifyStorageSlotPassword(c.Request.Context(), id, req.Password)
	if err != nil {
		respondError(c, "StorageSlots", "VerifyStorageSlotPassword", err, "Lagerplatz nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": valid})
}

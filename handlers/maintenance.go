package handlers

import (
	"net/http"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

type maintenanceRequest struct {
	Settings map[string]bool `json:"settings"`
}

func maintenanceSettings(c *gin.Context) {
	settings, err := models.GetMaintenanceSettings(c.Request.Context())
	if err != nil {
		respondError(c, "Maintenance", "GetMaintenanceSettings", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

func updateMaintenanceSettings(c *gin.Context) {
	var req maintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := models.UpdateMaintenanceSettings(c.Request.Context(), req.Settings); err != nil {
		respondError(c, "Maintenance", "UpdateMaintenanceSettings", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Wartungseinstellungen gespeichert"})
}

func maintenanceStatus(c *gin.Context) {
	status, err := models.GetMaintenanceStatus(c.Request.Context(), c.Param("module"))
	if err != nil {
		respondError(c, "Maintenance", "GetMaintenanceStatus", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"is_disabled": status.IsDisabled,
		"reason":      status.Reason,
	})
}

package handlers

import (
	"net/http"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

func overviewStats(c *gin.Context) {
	stats, err := models.GetOverviewStats(c.Request.Context())
	if err != nil {
		respondError(c, "Dashboard", "GetOverviewStats", err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func dashboardStats(c *gin.Context) {
	stats, err := models.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, "Dashboard", "GetDashboardStats", err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

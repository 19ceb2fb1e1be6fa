package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/reports"
	"github.com/gin-gonic/gin"
)

func recentActivity(c *gin.Context) {
	entries, err := models.RecentActivity(c.Request.Context(), models.RecentActivityLimit)
	if err != nil {
		respondError(c, "Activity", "RecentActivity", err, "")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func exportActivity(c *gin.Context) {
	limit := models.MaxActivityExport
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Ungültiges Limit")
			return
		}
		limit = n
	}
	entries, err := models.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "Activity", "ExportActivity", err, "")
		return
	}
	f, err := reports.ActivityWorkbook(entries)
	if err != nil {
		respondError(c, "Activity", "ActivityWorkbook", err, "")
		return
	}
	c.Header("Content-Type", reports.ContentTypeXlsx)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=aktivitaeten_%s.xlsx", time.Now().Format("20060102")))
	if err := reports.Write(f, c.Writer); err != nil {
		_ = c.Error(err)
	}
}

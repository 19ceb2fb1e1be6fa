package middlewares

import (
	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/gin-gonic/gin"
)

// MaintenanceGate answers 503 while module is switched off, or while its state
// cannot be read. Members holding manage_maintenance keep access so they can
// switch it back on.
func MaintenanceGate(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if models.RequireCapability(ctx, models.CapManageMaintenance, "") == nil {
			c.Next()
			return
		}
		status, err := models.GetMaintenanceStatus(ctx, module)
		if err != nil {
			config.LogError(config.GetLogger(), "MaintenanceGate", "GetMaintenanceStatus", "reading maintenance status", module, err)
			abortWithError(c, utils.NewUnavailableError("Wartungsstatus konnte nicht geprüft werden"))
			return
		}
		if status.IsDisabled {
			reason := "Dieses Modul befindet sich im Wartungsmodus"
			if status.Reason != nil && *status.Reason != "" {
				reason = *status.Reason
			}
			err := utils.NewUnavailableError(reason)
			c.AbortWithStatusJSON(utils.StatusOf(err), gin.H{
				"error":       utils.MessageOf(err),
				"maintenance": true,
				"module":      module,
			})
			return
		}
		c.Next()
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

func Healthz(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Readyz answers 204 once the database and redis both respond.
func Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := config.PingDB(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not ready"})
		return
	}
	if err := config.PingRedis(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "redis not ready"})
		return
	}
	c.Status(http.StatusNoContent)
}

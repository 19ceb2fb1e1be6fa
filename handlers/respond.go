package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondError writes err as {"error": message}. notFound is used when a plain
// record-not-found error reaches the handler.
func respondError(c *gin.Context, module string, funcName string, err error, notFound string) {
	if status := utils.StatusOf(err); status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"error": utils.MessageOf(err)})
		return
	}
	if errors.Is(err, utils.ErrorRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		if notFound == "" {
			notFound = "Nicht gefunden"
		}
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	config.LogError(config.GetLogger(), module, funcName, "request failed", map[string]any{
		"path":           c.FullPath(),
		"correlation_id": cid,
	}, err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// bindJSON decodes the body into dest and answers 400 on malformed input.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		badRequest(c, "Ungültige Anfrage")
		return false
	}
	return true
}

// pathId parses the named path parameter as a positive integer id.
func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		badRequest(c, "Ungültige ID")
		return 0, false
	}
	return id, true
}

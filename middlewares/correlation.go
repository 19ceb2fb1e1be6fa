package middlewares

import (
	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const CorrelationHeader = "x-correlation-id"

// CorrelationId attaches the caller's correlation id, or a fresh one, to the
// request context and echoes it back.
func CorrelationId() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header(CorrelationHeader, cid)
		c.Next()
	}
}

// ErrorLogger logs the errors handlers attached to the gin context.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger := config.GetLogger()
			logger.WithField("correlation_id", cid).Error(c.Errors.String())
		}
	}
}

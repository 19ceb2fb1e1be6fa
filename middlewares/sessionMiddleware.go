package middlewares

import (
	"net/http"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/gin-gonic/gin"
)

const sessionUserKey = "sessionUser"

// SessionToken reads the session cookie and falls back to the "token" header.
func SessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(config.Settings().SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	return c.Request.Header.Get("token")
}

// SessionMiddleware resolves the session behind the request token and stores the
// member's identity and capabilities in the request context. Unknown tokens pass
// through anonymously; RequireLogin rejects them.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		user, err := models.ResolveSession(c.Request.Context(), token)
		if err != nil {
			config.LogError(config.GetLogger(), "SessionMiddleware", "ResolveSession", "resolving session", nil, err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Sitzungsdienst nicht verfügbar"})
			return
		}
		if user == nil {
			c.Next()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUsernameInContext(ctx, user.Username)
		ctx = utils.SetUserNameInContext(ctx, user.FullName)
		ctx = utils.SetCapabilitiesInContext(ctx, user.Capabilities)
		c.Request = c.Request.WithContext(ctx)
		c.Set(sessionUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the member resolved by SessionMiddleware.
func CurrentUser(c *gin.Context) *models.SessionUser {
	v, ok := c.Get(sessionUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.SessionUser)
	return user
}

func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Nicht angemeldet"})
			return
		}
		c.Next()
	}
}

// RequireCapability rejects members whose resolved capability set lacks want.
func RequireCapability(want models.Capability, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Nicht angemeldet"})
			return
		}
		if err := models.RequireCapability(c.Request.Context(), want, message); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(utils.StatusOf(err), gin.H{"error": utils.MessageOf(err)})
}

package handlers

import (
	"net/http"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/middlewares"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func setSessionCookie(c *gin.Context, token string, maxAge int) {
	settings := config.Settings()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(settings.SessionCookieName, token, maxAge, "/", "", settings.SessionCookieSecure, true)
}

func login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	info, err := models.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "Auth", "Login", err, "")
		return
	}
	setSessionCookie(c, info.Token, int(config.Settings().SessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true, "user": info.User})
}

func logout(c *gin.Context) {
	if err := models.Logout(c.Request.Context()); err != nil {
		respondError(c, "Auth", "Logout", err, "")
		return
	}
	setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func session(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": true, "user": user})
}

// clearSession drops the cookie's session without an activity entry.
func clearSession(c *gin.Context) {
	if token := middlewares.SessionToken(c); token != "" {
		if err := models.DestroySession(token); err != nil {
			respondError(c, "Auth", "ClearSession", err, "")
			return
		}
	}
	setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

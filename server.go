package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/handlers"
	"github.com/H2RkawaNinja/dashboard/middlewares"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// probes answer even while the database and redis are still connecting.
var probes = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Route nicht gefunden"})
}

// readinessGate returns 503 for app endpoints until DB and Redis are connected.
func readinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if probes[c.Request.URL.Path] {
			c.Next()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Dienst startet noch"})
			return
		}
		c.Next()
	}
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist; the frontend sends the session cookie.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if allowedOrigins == "" {
			corsConfig.AllowOriginFunc = func(origin string) bool { return false }
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else if allowedOrigins != "" {
		corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
	} else {
		// credentials and wildcard origins do not mix, so echo the caller
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	corsConfig.AllowCredentials = true
	return corsConfig
}

// globalRateLimiter is enabled with RATE_LIMIT_ENABLED=true, window and budget
// come from RATE_LIMIT_WINDOW_SECONDS and RATE_LIMIT_MAX_REQUESTS.
func globalRateLimiter() *middlewares.RateLimiter {
	if !config.BoolFromEnv("RATE_LIMIT_ENABLED", false) {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDRESS"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	limit := int64(config.IntFromEnv("RATE_LIMIT_MAX_REQUESTS", 600))
	if limit <= 0 {
		limit = 600
	}
	windowSec := config.IntFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
	if windowSec <= 0 {
		windowSec = 60
	}
	return middlewares.NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
}

func newRouter() *gin.Engine {
	settings := config.Settings()

	r := gin.New()
	r.Use(middlewares.CorrelationId())
	r.Use(readinessGate())
	r.Use(cors.New(corsConfig()))
	r.Use(middlewares.MetricsMiddleware())
	if limiter := globalRateLimiter(); limiter != nil {
		r.Use(limiter.RateLimitMiddleware)
	}
	r.Use(middlewares.ErrorLogger())
	r.Use(gin.Recovery())

	if utils.GetStorageProvider() == utils.StorageProviderLocal {
		r.Static(settings.PublicUploadBaseURL, settings.UploadDir)
	}

	handlers.RegisterRoutes(r, middlewares.NewLoginLimiter(settings.LoginRatePerMinute, settings.LoginRateBurst))
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := config.Port()
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := newRouter()

	// Listen before the dependencies are up; the readiness gate answers 503 meanwhile.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can lock tables; SKIP_MIGRATIONS=true leaves it to `dashboardctl migrate`.
	if !config.BoolFromEnv("SKIP_MIGRATIONS", false) {
		if err := models.MigrateTable(sigCtx); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
		"port": port,
	}).Info("dashboard api ready")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

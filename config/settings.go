package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort          = "3000"
	DefaultInviteBaseURL = "https://bstribe.com/setup.html"
	DefaultSessionCookie = "dashboard_session"
)

// AppSettings is the env-derived runtime configuration.
type AppSettings struct {
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool
	InviteBaseURL       string
	InviteTTL           time.Duration
	LoginRatePerMinute  int
	LoginRateBurst      int
	PhoneRegion         string
	UploadDir           string
	PublicUploadBaseURL string
}

// Settings reads the environment on every call so tests can use t.Setenv.
func Settings() AppSettings {
	return AppSettings{
		SessionTTL:          time.Duration(intFromEnv("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionCookieName:   stringFromEnv("SESSION_COOKIE_NAME", DefaultSessionCookie),
		SessionCookieSecure: boolFromEnv("SESSION_COOKIE_SECURE", true),
		InviteBaseURL:       stringFromEnv("INVITE_BASE_URL", DefaultInviteBaseURL),
		InviteTTL:           time.Duration(intFromEnv("INVITE_TTL_HOURS", 7*24)) * time.Hour,
		LoginRatePerMinute:  intFromEnv("LOGIN_RATE_PER_MINUTE", 10),
		LoginRateBurst:      intFromEnv("LOGIN_RATE_BURST", 5),
		PhoneRegion:         stringFromEnv("PHONE_REGION", "DE"),
		UploadDir:           stringFromEnv("UPLOAD_DIR", "uploads"),
		PublicUploadBaseURL: stringFromEnv("PUBLIC_UPLOAD_BASE_URL", "/uploads"),
	}
}

func Port() string {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = DefaultPort
	}
	return port
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	}
	return def
}

func stringFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// IntFromEnv is exported for main and the CLI.
func IntFromEnv(key string, def int) int {
	return intFromEnv(key, def)
}

// BoolFromEnv is exported for main and the CLI.
func BoolFromEnv(key string, def bool) bool {
	return boolFromEnv(key, def)
}

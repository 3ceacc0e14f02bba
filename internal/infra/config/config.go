// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the worker's environment-variable settings.
// All schedule evaluation is UTC-normalized; the cron specs are parsed at
// scheduler Start(), where an invalid expression fails the boot.
type Config struct {
	Port string

	// GCP / Firestore
	ProjectID       string
	CredentialsFile string

	// Collections (owned by the storefront backend; read here)
	CartsCollection string
	UsersCollection string

	// Abandonment policy
	ThresholdHours   int
	CooldownHours    int
	MaxNotifications int

	// Scheduling
	PrimaryCronSpec  string
	FallbackCronSpec string

	// Batch pacing / hardening
	SendDelay      time.Duration
	MaxRunDuration time.Duration

	// Mail
	SendGridAPIKey         string
	SendGridAPIKeySecretID string
	SendGridFrom           string
	MallBaseURL            string
}

// Load reads the environment and returns the Config with defaults applied.
func Load() *Config {
	return &Config{
		Port: getenvDefault("PORT", "8080"),

		ProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT")),
		CredentialsFile: getenvDefault("FIRESTORE_CREDENTIALS_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		CartsCollection: getenvDefault("CARTS_COLLECTION", "carts"),
		UsersCollection: getenvDefault("USERS_COLLECTION", "users"),

		ThresholdHours:   getenvInt("ABANDONMENT_THRESHOLD_HOURS", 24),
		CooldownHours:    getenvInt("ABANDONMENT_COOLDOWN_HOURS", 24),
		MaxNotifications: getenvInt("ABANDONMENT_MAX_NOTIFICATIONS", 3),

		// empty → schedule package defaults (4x/day primary, 12h fallback)
		PrimaryCronSpec:  os.Getenv("ABANDONMENT_PRIMARY_CRON"),
		FallbackCronSpec: os.Getenv("ABANDONMENT_FALLBACK_CRON"),

		SendDelay:      time.Duration(getenvInt("ABANDONMENT_SEND_DELAY_MS", 1000)) * time.Millisecond,
		MaxRunDuration: time.Duration(getenvInt("ABANDONMENT_MAX_RUN_MINUTES", 10)) * time.Minute,

		SendGridAPIKey:         os.Getenv("SENDGRID_API_KEY"),
		SendGridAPIKeySecretID: os.Getenv("SENDGRID_API_KEY_SECRET_ID"),
		SendGridFrom:           os.Getenv("SENDGRID_FROM"),
		MallBaseURL:            os.Getenv("MALL_BASE_URL"),
	}
}

// Threshold returns the abandonment threshold as a duration.
func (c *Config) Threshold() time.Duration {
	return time.Duration(c.ThresholdHours) * time.Hour
}

// Cooldown returns the notification cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
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

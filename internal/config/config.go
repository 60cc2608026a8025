package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv          string
	Debug           bool
	Version         string
	BotToken        string
	SentryDSN       string
	MongoDBURI      string
	MongoDBDatabase string

	// RequiredChannels lists the channels a user must be subscribed to
	// before a code can be revealed. Order is preserved for gate prompts.
	// Each entry is an @username or a numeric chat ID.
	RequiredChannels []string
	// AdminIDs lists user IDs allowed to manage the catalog.
	AdminIDs []int64
	// AdminsExempt lets admins bypass the subscription gate.
	AdminsExempt bool
	// MembershipTimeout bounds each membership lookup against Telegram.
	MembershipTimeout time.Duration

	DefaultLanguage string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))
	adminsExempt, _ := strconv.ParseBool(getEnv("ADMINS_EXEMPT", "true"))

	membershipTimeout := 5 * time.Second
	if raw := getEnv("MEMBERSHIP_TIMEOUT", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MEMBERSHIP_TIMEOUT: %w", err)
		}
		membershipTimeout = parsed
	}

	adminIDs, err := parseAdminIDs(getEnv("ADMIN_IDS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Debug:             debug,
		Version:           getEnv("VERSION", "dev"),
		BotToken:          getEnv("TELEGRAM_BOT_TOKEN", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		MongoDBURI:        getEnv("MONGODB_URI", ""),
		MongoDBDatabase:   getEnv("MONGODB_DATABASE", ""),
		RequiredChannels:  parseChannels(getEnv("REQUIRED_CHANNELS", "")),
		AdminIDs:          adminIDs,
		AdminsExempt:      adminsExempt,
		MembershipTimeout: membershipTimeout,
		DefaultLanguage:   getEnv("DEFAULT_LANGUAGE", "en"),
	}

	// Basic validation for essential variables
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.MongoDBDatabase == "" {
		return nil, fmt.Errorf("MONGODB_DATABASE is required")
	}
	if len(cfg.RequiredChannels) == 0 {
		log.Println("Warning: REQUIRED_CHANNELS is empty. Subscription gate is disabled.")
	}
	if len(cfg.AdminIDs) == 0 {
		log.Println("Warning: ADMIN_IDS is empty. Catalog management is disabled.")
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}

	return cfg, nil
}

// parseChannels splits a comma-separated channel list, keeping order and
// dropping empty items.
func parseChannels(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var channels []string
	for _, part := range strings.Split(raw, ",") {
		channel := strings.TrimSpace(part)
		if channel != "" {
			channels = append(channels, channel)
		}
	}
	return channels
}

func parseAdminIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

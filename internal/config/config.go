package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string
	Environment  string
	LogLevel     string
	Shopify      ShopifyConfig
	API          APIConfig
	SMTP         SMTPConfig
	Idempotency  IdempotencyConfig
	Database     DatabaseConfig
	Registration RegistrationConfig
}

type ShopifyConfig struct {
	ShopDomain    string
	AccessToken   string
	APIVersion    string
	WebhookSecret string
	Timeout       time.Duration
	// BaseURL overrides the https://{shop}/admin/api/{version} URL.
	// Used by tests; leave empty in production.
	BaseURL string
}

type APIConfig struct {
	// Key is the shared-secret API key compared by exact match.
	Key string
	// KeyHash, when set, takes precedence over Key and is verified
	// with bcrypt (see cmd/gen-api-key).
	KeyHash string
	// PublicBaseURL is this service's externally reachable base URL,
	// used as the webhook subscription target.
	PublicBaseURL string
	// AllowedOrigins gates the public registration endpoint.
	AllowedOrigins     []string
	RateLimitPerMinute int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// RegistrationRecipients receive the staff copy of registration mails.
	RegistrationRecipients []string
}

type IdempotencyConfig struct {
	// Backend is "memory" or "postgres".
	Backend       string
	TTL           time.Duration
	SweepInterval time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RegistrationConfig struct {
	// HoneypotField names the hidden form field that must stay empty.
	HoneypotField string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHOPIFY_API_VERSION", "2024-01")
	viper.SetDefault("SHOPIFY_TIMEOUT_SECONDS", "10")
	viper.SetDefault("IDEMPOTENCY_BACKEND", "memory")
	viper.SetDefault("IDEMPOTENCY_TTL_MINUTES", "10")
	viper.SetDefault("IDEMPOTENCY_SWEEP_MINUTES", "5")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", "120")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REGISTRATION_HONEYPOT_FIELD", "website")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Shopify: ShopifyConfig{
			ShopDomain:    getEnvOrViper("SHOPIFY_SHOP_DOMAIN", ""),
			AccessToken:   getEnvOrViper("SHOPIFY_ACCESS_TOKEN", ""),
			APIVersion:    getEnvOrViper("SHOPIFY_API_VERSION", "2024-01"),
			WebhookSecret: getEnvOrViper("SHOPIFY_WEBHOOK_SECRET", ""),
			Timeout:       time.Duration(getPositiveInt("SHOPIFY_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		API: APIConfig{
			Key:                getEnvOrViper("API_KEY", ""),
			KeyHash:            getEnvOrViper("API_KEY_HASH", ""),
			PublicBaseURL:      strings.TrimSuffix(getEnvOrViper("PUBLIC_BASE_URL", ""), "/"),
			AllowedOrigins:     splitList(getEnvOrViper("ALLOWED_ORIGINS", "")),
			RateLimitPerMinute: getPositiveInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		SMTP: SMTPConfig{
			Host:                   getEnvOrViper("SMTP_HOST", ""),
			Port:                   getPositiveInt("SMTP_PORT", 587),
			User:                   getEnvOrViper("SMTP_USER", ""),
			Password:               getEnvOrViper("SMTP_PASSWORD", ""),
			From:                   getEnvOrViper("SMTP_FROM", ""),
			RegistrationRecipients: splitList(getEnvOrViper("REGISTRATION_RECIPIENTS", "")),
		},
		Idempotency: IdempotencyConfig{
			Backend:       getEnvOrViper("IDEMPOTENCY_BACKEND", "memory"),
			TTL:           time.Duration(getPositiveInt("IDEMPOTENCY_TTL_MINUTES", 10)) * time.Minute,
			SweepInterval: time.Duration(getPositiveInt("IDEMPOTENCY_SWEEP_MINUTES", 5)) * time.Minute,
		},
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "shopbridge"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Registration: RegistrationConfig{
			HoneypotField: getEnvOrViper("REGISTRATION_HONEYPOT_FIELD", "website"),
		},
	}

	// Validate required fields
	if cfg.Shopify.ShopDomain == "" {
		return nil, fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	if cfg.Shopify.AccessToken == "" {
		return nil, fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required")
	}
	if cfg.API.Key == "" && cfg.API.KeyHash == "" {
		return nil, fmt.Errorf("API_KEY or API_KEY_HASH is required")
	}
	if cfg.Idempotency.Backend != "memory" && cfg.Idempotency.Backend != "postgres" {
		return nil, fmt.Errorf("IDEMPOTENCY_BACKEND must be memory or postgres, got %q", cfg.Idempotency.Backend)
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) int {
	raw := getEnvOrViper(key, strconv.Itoa(defaultValue))
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

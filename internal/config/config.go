package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	// Active payment provider and its credentials. Validated at startup so a
	// misconfigured deployment fails before the first request arrives.
	PaymentProvider      string
	LemonSqueezyAPIKey   string
	LemonSqueezyStoreID  string
	LemonSqueezyAPIBase  string
	WebhookSigningSecret string
	CheckoutSuccessURL   string
	WebhookFailOpen      bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "ats-fit"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		PaymentProvider:      strings.ToLower(strings.TrimSpace(getenv("PAYMENT_PROVIDER", "lemonsqueezy"))),
		LemonSqueezyAPIKey:   strings.TrimSpace(getenv("LEMONSQUEEZY_API_KEY", "")),
		LemonSqueezyStoreID:  strings.TrimSpace(getenv("LEMONSQUEEZY_STORE_ID", "")),
		LemonSqueezyAPIBase:  getenv("LEMONSQUEEZY_API_BASE", "https://api.lemonsqueezy.com"),
		WebhookSigningSecret: strings.TrimSpace(getenv("PAYMENT_WEBHOOK_SECRET", "")),
		CheckoutSuccessURL:   getenv("CHECKOUT_SUCCESS_URL", ""),
		WebhookFailOpen:      getenvBool("WEBHOOK_FAIL_OPEN", true),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "no-reply@atsfit.app"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "atsfit"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}
}

// Validate rejects configurations that cannot serve payments. Missing
// credentials for the active provider are a startup error, not a
// first-request error.
func (c Config) Validate() error {
	switch c.PaymentProvider {
	case "":
		return fmt.Errorf("PAYMENT_PROVIDER is required")
	case "lemonsqueezy":
		if c.LemonSqueezyAPIKey == "" {
			return fmt.Errorf("LEMONSQUEEZY_API_KEY is required for provider %q", c.PaymentProvider)
		}
		if c.LemonSqueezyStoreID == "" {
			return fmt.Errorf("LEMONSQUEEZY_STORE_ID is required for provider %q", c.PaymentProvider)
		}
		if c.WebhookSigningSecret == "" {
			return fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required for provider %q", c.PaymentProvider)
		}
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

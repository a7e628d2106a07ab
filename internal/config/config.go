package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/gateway"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/notify"
	"github.com/shopspring/decimal"
)

const (
	defaultFeeRate             = "0.10"
	defaultPendingExpiry       = 15 * time.Minute
	defaultExpirySweepInterval = time.Minute
)

type Config struct {
	Port                string
	DBUrl               string
	JWTSecret           string
	AppEnv              string
	LogLevel            string
	LogPretty           bool
	PlatformFeeRate     decimal.Decimal
	PendingExpiry       time.Duration
	ExpirySweepInterval time.Duration
	Gateway             gateway.Config
	SMTP                notify.SMTPConfig
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	feeRate, err := decimal.NewFromString(getEnv("PLATFORM_FEE_RATE", defaultFeeRate))
	if err != nil {
		return nil, fmt.Errorf("PLATFORM_FEE_RATE: %w", err)
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1), got %s", feeRate)
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DBUrl:               getEnv("DB_URL", ""),
		JWTSecret:           jwtSecret,
		AppEnv:              normalizeEnv(getEnv("APP_ENV", "production")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           getEnvBool("LOG_PRETTY", false),
		PlatformFeeRate:     feeRate,
		PendingExpiry:       getEnvDuration("PENDING_EXPIRY", defaultPendingExpiry),
		ExpirySweepInterval: getEnvDuration("EXPIRY_SWEEP_INTERVAL", defaultExpirySweepInterval),
		Gateway: gateway.Config{
			CheckoutURL:    getEnv("PAYHERE_CHECKOUT_URL", "https://sandbox.payhere.lk/pay/checkout"),
			MerchantID:     getEnv("PAYHERE_MERCHANT_ID", ""),
			MerchantSecret: getEnv("PAYHERE_MERCHANT_SECRET", ""),
			Currency:       getEnv("PAYHERE_CURRENCY", "LKR"),
			NotifyURL:      getEnv("PAYHERE_NOTIFY_URL", ""),
			ReturnURL:      getEnv("PAYHERE_RETURN_URL", ""),
			CancelURL:      getEnv("PAYHERE_CANCEL_URL", ""),
		},
		SMTP: notify.SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@hustlehut.lk"),
			Timeout:  getEnvDuration("SMTP_TIMEOUT", notify.DefaultSendTimeout),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) SMTPEnabled() bool {
	return c != nil && c.SMTP.Host != ""
}

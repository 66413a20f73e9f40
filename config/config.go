package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/joy095/servicehub/logger"
	"github.com/shopspring/decimal"
)

var envOnce sync.Once

// LoadEnv loads .env once. A missing file is fine; the process env wins.
func LoadEnv() {
	envOnce.Do(func() {
		_ = godotenv.Load()
	})
}

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	CommissionRate  decimal.Decimal
	MinPayoutAmount decimal.Decimal
	Currency        string

	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	OpsEmail     string

	PayoutRateLimit string
	BadWordsFile    string
}

// Load reads the process environment into a Config with defaults applied.
func Load() *Config {
	LoadEnv()

	return &Config{
		Port:        getEnv("PORT", "8081"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		CommissionRate:  getRate("COMMISSION_RATE", decimal.RequireFromString("0.10")),
		MinPayoutAmount: getDecimal("MIN_PAYOUT_AMOUNT", decimal.NewFromInt(100)),
		Currency:        getEnv("CURRENCY", "INR"),

		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "servicehub.payments"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromEmail:    os.Getenv("FROM_EMAIL"),
		OpsEmail:     os.Getenv("OPS_EMAIL"),

		PayoutRateLimit: getEnv("PAYOUT_RATE_LIMIT", "5-1m"),
		BadWordsFile:    getEnv("BADWORDS_FILE", "badwords/en.txt"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fallback
	}
	return d
}

// getRate reads a fraction in [0, 1]; anything else falls back.
func getRate(key string, fallback decimal.Decimal) decimal.Decimal {
	d := getDecimal(key, fallback)
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		logger.WarnLogger.Warnf("%s=%s is outside [0, 1], using %s", key, d.String(), fallback.String())
		return fallback
	}
	return d
}

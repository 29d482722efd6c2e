package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	StripeSecretKey     string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	PlatformFeeRate     decimal.Decimal // fraction of the agreed amount kept by the platform, e.g. 0.025
	EventsChannel       string          // redis channel negotiation events are published on
}

const (
	defaultFeeRate       = "0.025"
	defaultEventsChannel = "negotiations:events"
)

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	feeRate, err := parseFeeRate(viper.GetString("PLATFORM_FEE_RATE"))
	if err != nil {
		return nil, err
	}

	channel := strings.TrimSpace(viper.GetString("NEGOTIATION_EVENTS_CHANNEL"))
	if channel == "" {
		channel = defaultEventsChannel
	}

	return &Config{
		Env:                 env,
		Port:                port,
		LogLevel:            viper.GetString("LOG_LEVEL"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		PlatformFeeRate:     feeRate,
		EventsChannel:       channel,
	}, nil
}

// parseFeeRate accepts a fraction in [0, 1) with at most 6 decimals. Empty means the default rate.
func parseFeeRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = defaultFeeRate
	}
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: PLATFORM_FEE_RATE %q: %w", s, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("config: PLATFORM_FEE_RATE %q must be in [0, 1)", s)
	}
	// fee_rate is stored as decimal(8,6)
	if !rate.Equal(rate.Truncate(6)) {
		return decimal.Zero, fmt.Errorf("config: PLATFORM_FEE_RATE %q has more than 6 decimal places", s)
	}
	return rate, nil
}

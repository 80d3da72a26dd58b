// Package config содержит логику чтения конфигурации интернет-магазина.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress      = "localhost:8080"
	defaultDatabaseName    = "online-shop"
	defaultSessionMaxAge   = 48 * time.Hour
	defaultPaymentAddress  = "https://api.stripe.com"
	defaultPaymentCurrency = "usd"
	defaultBaseURL         = "http://localhost:8080"
)

// Config содержит параметры конфигурации интернет-магазина.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	DatabaseName      string        `env:"DATABASE_NAME"`
	SessionStoreURI   string        `env:"SESSION_STORE_URI"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	SessionMaxAge     time.Duration `env:"SESSION_MAX_AGE"`
	PaymentAPIAddress string        `env:"PAYMENT_API_ADDRESS"`
	PaymentAPIKey     string        `env:"PAYMENT_API_KEY"`
	PaymentCurrency   string        `env:"PAYMENT_CURRENCY"`
	BaseURL           string        `env:"BASE_URL"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// Файл .env необязателен.
	_ = godotenv.Load()

	envCfg := &Config{}
	if err := env.Parse(envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{
		PaymentAPIKey: envCfg.PaymentAPIKey,
		BcryptCost:    envCfg.BcryptCost,
	}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI (postgres:// or mongodb://)")
	flag.StringVar(&cfg.DatabaseName, "n", defaultDatabaseName, "database name for MongoDB")
	flag.StringVar(&cfg.SessionStoreURI, "s", "", "session store URI (redis:// or mongodb://), empty for in-memory")
	flag.StringVar(&cfg.SessionSecret, "k", "", "secret for signing session cookies")
	flag.DurationVar(&cfg.SessionMaxAge, "m", defaultSessionMaxAge, "session lifetime")
	flag.StringVar(&cfg.PaymentAPIAddress, "p", defaultPaymentAddress, "payment provider API address")
	flag.StringVar(&cfg.PaymentCurrency, "c", defaultPaymentCurrency, "payment currency")
	flag.StringVar(&cfg.BaseURL, "b", defaultBaseURL, "public base URL of the shop")

	flag.Parse()

	overrideString(&cfg.RunAddress, envCfg.RunAddress)
	overrideString(&cfg.DatabaseURI, envCfg.DatabaseURI)
	overrideString(&cfg.DatabaseName, envCfg.DatabaseName)
	overrideString(&cfg.SessionStoreURI, envCfg.SessionStoreURI)
	overrideString(&cfg.SessionSecret, envCfg.SessionSecret)
	overrideString(&cfg.PaymentAPIAddress, envCfg.PaymentAPIAddress)
	overrideString(&cfg.PaymentCurrency, envCfg.PaymentCurrency)
	overrideString(&cfg.BaseURL, envCfg.BaseURL)
	if envCfg.SessionMaxAge > 0 {
		cfg.SessionMaxAge = envCfg.SessionMaxAge
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = defaultSessionMaxAge
	}

	return cfg, nil
}

func overrideString(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}

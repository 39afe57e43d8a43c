package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port            string
	DBDSN           string
	LogFile         string
	LogLevel        string
	RateLimitPerMin int
	StartingBalance decimal.Decimal
	TaxRate         decimal.Decimal
	ShippingFlat    decimal.Decimal
	FreeShippingMin decimal.Decimal
	MaxTopUp        decimal.Decimal
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// decenv reads a non-negative decimal; malformed values fall back to def.
func decenv(key, def string) decimal.Decimal {
	d, err := decimal.NewFromString(getenv(key, def))
	if err != nil || d.IsNegative() {
		return decimal.RequireFromString(def)
	}
	return d
}

// Default returns the configuration used when no environment overrides are set.
func Default() Config {
	return Config{
		Port:            "8080",
		DBDSN:           "dormstore.db",
		LogFile:         "./dormstore.log",
		LogLevel:        "info",
		RateLimitPerMin: 120,
		StartingBalance: decimal.RequireFromString("1000.00"),
		TaxRate:         decimal.RequireFromString("0.13"),
		ShippingFlat:    decimal.RequireFromString("9.99"),
		FreeShippingMin: decimal.RequireFromString("100.00"),
		MaxTopUp:        decimal.RequireFromString("10000.00"),
	}
}

func Load() Config {
	d := Default()
	port := getenv("PORT", d.Port)
	if port == "" {
		port = d.Port
	}
	dsn := getenv("DB_DSN", d.DBDSN)
	if dsn == "" {
		dsn = d.DBDSN // sqlite file in working dir
	}
	return Config{
		Port:            port,
		DBDSN:           dsn,
		LogFile:         getenv("LOG_FILE", d.LogFile), // empty disables the file sink
		LogLevel:        getenv("LOG_LEVEL", d.LogLevel),
		RateLimitPerMin: atoienv("RATE_LIMIT_PER_MIN", d.RateLimitPerMin),
		StartingBalance: decenv("STARTING_BALANCE", d.StartingBalance.StringFixed(2)),
		TaxRate:         decenv("TAX_RATE", d.TaxRate.String()),
		ShippingFlat:    decenv("SHIPPING_FLAT", d.ShippingFlat.StringFixed(2)),
		FreeShippingMin: decenv("FREE_SHIPPING_MIN", d.FreeShippingMin.StringFixed(2)),
		MaxTopUp:        decenv("MAX_TOPUP", d.MaxTopUp.StringFixed(2)),
	}
}

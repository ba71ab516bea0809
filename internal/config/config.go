// Package config loads runtime settings from the process environment,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds the environment-driven settings. Provider credentials stay
// optional; providers that need them validate at construction.
type Env struct {
	BinanceAPIKey    string
	BinanceAPISecret string
	PolygonAPIKey    string
	LoggingDebug     bool
	LogToFile        bool
}

// LoadEnv reads the settings from the environment, seeded from a .env file
// in the working directory when one exists. A missing variable keeps its
// default; malformed booleans fall back to the default as well.
func LoadEnv() Env {
	// Already-set process variables win over the .env file.
	_ = godotenv.Load()

	return Env{
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),
		PolygonAPIKey:    os.Getenv("POLYGON_API_KEY"),
		LoggingDebug:     boolEnv("LOGGING_DEBUG", false),
		LogToFile:        boolEnv("LOG_TO_FILE", true),
	}
}

func boolEnv(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return value
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr              string
	PostgresURL       string
	RedisURL          string
	JWTSigningKey     string
	LowStockThreshold int
	ShutdownTimeout   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("STOKRI_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	lowStock := 0
	if raw := os.Getenv("STOKRI_LOW_STOCK_THRESHOLD"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			lowStock = parsed
		}
	}

	return Server{
		Addr:              addr,
		PostgresURL:       os.Getenv("STOKRI_POSTGRES_URL"),
		RedisURL:          os.Getenv("STOKRI_REDIS_URL"),
		JWTSigningKey:     jwtSigningKey,
		LowStockThreshold: lowStock,
		ShutdownTimeout:   10 * time.Second,
	}
}

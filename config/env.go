package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	DB     DBConfig
	Auth   AuthConfig
}

type ServerConfig struct {
	Port          string
	SearchQuietMs int

	// RequireLocation refuses unscoped catalog searches, for deployments
	// serving more than one dispensing counter.
	RequireLocation bool
}

type DBConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CounterCode string
	CounterPIN  string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	quietMs, _ := strconv.Atoi(getEnv("SEARCH_QUIET_MS", "300"))
	tokenTTLHours, _ := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "12"))

	return Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			SearchQuietMs:   quietMs,
			RequireLocation: getEnv("REQUIRE_LOCATION", "false") == "true",
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			DSN: getEnv("PHARMACY_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "dev-only-secret"),
			TokenTTL:    time.Duration(tokenTTLHours) * time.Hour,
			CounterCode: getEnv("COUNTER_CODE", "opd-counter"),
			CounterPIN:  getEnv("COUNTER_PIN", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

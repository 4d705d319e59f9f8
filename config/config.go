package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPort         = "8080"
	defaultDatabasePath = "slakttrad.db"
	defaultJWTTTLHours  = 24
	defaultCORSOrigin   = "http://localhost:5173"

	// devJWTSecret is only used when JWT_SECRET is unset; never rely on it
	// outside local development.
	devJWTSecret = "slakttrad-dev-secret"
)

type Config struct {
	// HTTP listen port
	Port string

	// sqlite database path
	DatabasePath string

	// token signing
	JWTSecret   string
	JWTTTLHours int

	// comma-separated list of allowed CORS origins
	CORSAllowedOrigins []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET not set, using development default")
		secret = devJWTSecret
	}

	origins := strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigin), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := Config{
		Port:               getEnvOrDefault("PORT", defaultPort),
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		JWTSecret:          secret,
		JWTTTLHours:        getEnvIntOrDefault("JWT_TTL_HOURS", defaultJWTTTLHours),
		CORSAllowedOrigins: origins,
	}

	return cfg, nil
}

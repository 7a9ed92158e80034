package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const devJWTSecret = "dev_jwt_secret_change_me"

type Config struct {
	Port        string
	GinMode     string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
	CacheSize   int
	CacheTTL    time.Duration
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
	BcryptCost  int
}

// Load reads the configuration from the environment. Call godotenv.Load first
// if a .env file should be honoured.
func Load() Config {
	return Config{
		Port:        envString("PORT", "8080"),
		GinMode:     envString("GIN_MODE", "debug"),
		DatabaseURL: envString("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=blogapi port=5432 sslmode=disable"),
		JWTSecret:   envString("JWT_SECRET", devJWTSecret),
		TokenTTL:    envDuration("TOKEN_TTL", 30*24*time.Hour),
		AdminEmails: envList("ADMIN_EMAILS"),
		CacheSize:   envInt("CACHE_SIZE", 500),
		CacheTTL:    envDuration("CACHE_TTL", 30*time.Second),
		LogLevel:    envString("LOG_LEVEL", "info"),
		LogFormat:   envString("LOG_FORMAT", "json"),
		CORSOrigins: envListDefault("CORS_ORIGINS", []string{"*"}),
		BcryptCost:  envInt("BCRYPT_COST", bcrypt.DefaultCost),
	}
}

// UsingDevSecret reports whether tokens are signed with the built-in secret.
func (c Config) UsingDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	return envListDefault(key, nil)
}

func envListDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

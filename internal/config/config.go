package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	AllowedOrigins        []string
	DatabaseURL           string
	MigrateOnStart        bool
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int
	SessionDataURL        string
	AuthPortalURL         string
	AppURL                string
	SeedAdminEmail        string
	SeedAdminPassword     string
	SeedDefaultPartners   bool
	LogLevel              string
	LogFormat             string
	RequestTimeoutSeconds int
}

// Load reads the process environment. A .env file in the working directory
// is applied first without overriding variables that are already set.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "10080"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 10080
	}
	timeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "15"))
	if err != nil || timeout < 1 {
		timeout = 15
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8001"),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://127.0.0.1:3000")),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		MigrateOnStart:        getBool("MIGRATE_ON_START", true),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		SessionDataURL:        strings.TrimSpace(os.Getenv("AUTH_SESSION_DATA_URL")),
		AuthPortalURL:         strings.TrimSpace(os.Getenv("AUTH_PORTAL_URL")),
		AppURL:                getEnv("APP_URL", "http://127.0.0.1:3000"),
		SeedAdminEmail:        strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))),
		SeedAdminPassword:     os.Getenv("SEED_ADMIN_PASSWORD"),
		SeedDefaultPartners:   getBool("SEED_DEFAULT_PARTNERS", true),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		RequestTimeoutSeconds: timeout,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return val
}

func splitList(raw string) []string {
	out := make([]string, 0, 2)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

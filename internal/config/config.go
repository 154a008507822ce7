package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	JWKSURL     string
	// LLM Configuration
	OpenAIAPIKey  string
	OpenAIBaseURL string
	DefaultModel  string
	// Dev flags
	DevUserID string // bypasses JWT auth when set (dev only)
	UseMemory bool   // in-memory stores instead of Postgres (dev only)
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getEnv("TABLE_PREFIX", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		// LLM Configuration
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		DefaultModel:  getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
		// Dev flags - never set these in production
		DevUserID: getEnv("DEV_USER_ID", ""),
		UseMemory: getEnv("USE_MEMORY_STORE", boolDefault(env)) == "true",
	}
}

// boolDefault enables the in-memory store by default outside prod.
func boolDefault(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

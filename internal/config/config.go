package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath     = "./dev.db"
	defaultPort       = "8080"
	defaultEnv        = "development"
	defaultLogLevel   = "info"
	defaultGenAIModel = "gemini-2.5-flash"
	defaultCurrency   = "USD"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	Port          string
	DBPath        string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	LogLevel      string
	GenAIAPIKey   string
	GenAIModel    string
	Currency      string
}

// Load reads environment variables and returns a populated Config.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:           getEnv("APP_ENV", defaultEnv),
		Port:          getEnv("PORT", defaultPort),
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		GenAIAPIKey:   os.Getenv("GENAI_API_KEY"),
		GenAIModel:    getEnv("GENAI_MODEL", defaultGenAIModel),
		Currency:      getEnv("CURRENCY", defaultCurrency),
	}
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch c.Env {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var warnings []string
	if c.AdminEmail == "" {
		warnings = append(warnings, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		warnings = append(warnings, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set")
	}
	if c.GenAIAPIKey == "" {
		warnings = append(warnings, "GENAI_API_KEY is not set; drafting is disabled")
	}
	return warnings
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

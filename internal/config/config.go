package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database (optional, in-memory stores when empty)
	DatabaseURL string

	// Redis (optional, in-memory session storage and job queue when empty)
	RedisURL string

	// JWT
	JWTSecret string

	// Generative text
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int
	GenAIURL             string
	GenAIRequestStyle    string

	// External auth backend for the login/register form; empty means in-process
	AuthBaseURL string

	// Community
	CommunityDisplayName string

	// Workers
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	port := getEnvOrDefault("PORT", "8080")

	cfg := &Config{
		Port:                 port,
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		GenAIURL:             getEnvOrDefault("GENAI_API_URL", ""),
		GenAIRequestStyle:    getEnvOrDefault("GENAI_REQUEST_STYLE", "nested"),
		AuthBaseURL:          getEnvOrDefault("AUTH_BASE_URL", ""),
		CommunityDisplayName: getEnvOrDefault("COMMUNITY_DISPLAY_NAME", "Community Member"),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 3),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

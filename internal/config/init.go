package config

import (
	"os"

	"github.com/joho/godotenv"
)

func Init() {
	// بارگذاری .env
	if err := godotenv.Load(); err != nil {
		Logger.Info("No .env file found, using system environment variables")
	}

	dbDSN := os.Getenv("DB_DSN")
	if dbDSN == "" {
		Logger.Fatal("DB_DSN is not set")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		Logger.Fatal("REDIS_ADDR is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		Logger.Fatal("JWT_SECRET is not set")
	}

	subreddit := os.Getenv("SUBREDDIT")
	if subreddit == "" {
		Logger.Fatal("SUBREDDIT is not set")
	}

	// a missing donation key is not fatal here: user flows surface it as a
	// short message and reconciliation ticks abort with a log line
	if os.Getenv("DONATION_API_KEY") == "" {
		Logger.Warn("DONATION_API_KEY is not set, upstream calls will fail until it is configured")
	}
}

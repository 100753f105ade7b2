package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	ChatOpenAI = "openai"
	ChatGemini = "gemini"
)

type Config struct {
	Port        string
	MongoURI    string
	DBName      string
	StoreDriver string

	JWTSecret   string
	FrontendURL string
	CORSOrigin  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	AWSRegion        string
	AWSBucketName    string
	AWSPublicBaseURL string

	ChatProvider string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string

	UpstreamTimeout time.Duration
}

// LoadConfig loads environment variables, reading a .env file first if
// one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/"),
		DBName:      getEnv("DB_NAME", "fitly"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@fitly.app"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Fitly App"),

		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSBucketName:    os.Getenv("AWS_BUCKET_NAME"),
		AWSPublicBaseURL: os.Getenv("AWS_PUBLIC_BASE_URL"),

		ChatProvider: strings.ToLower(getEnv("CHAT_PROVIDER", ChatOpenAI)),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", cfg.FrontendURL)

	timeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	cfg.UpstreamTimeout = timeout

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	case StoreMemory:
		if c.JWTSecret == "" {
			slog.Warn("JWT_SECRET is not set, using an insecure development secret")
			c.JWTSecret = "fitly-dev-secret"
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.ChatProvider {
	case ChatOpenAI, ChatGemini:
	default:
		return fmt.Errorf("unknown CHAT_PROVIDER %q", c.ChatProvider)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config is built once at startup and passed down; nothing mutates it
// after LoadConfig returns.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JwtSecret string

	CookieDomain   string
	CookieName     string
	AllowedOrigins []string
	ToolURLs       map[string]string

	StorageBucket   string
	StorageEndpoint string
	StorageRegion   string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	FrontendURL         string

	TrialInviteCode string

	CleanupWorkers int
	CleanupQueue   int
}

var defaultToolURLs = map[string]string{
	"rawgraphs":             "https://rawgraphs.dataviz.jp",
	"kepler-gl":             "https://kepler-gl.dataviz.jp",
	"cartogram-japan":       "https://cartogram-japan.dataviz.jp",
	"cartogram-prefectures": "https://cartogram-prefectures.dataviz.jp",
}

func LoadConfig() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	cookieDomain := os.Getenv("COOKIE_DOMAIN")
	if cookieDomain == "" {
		cookieDomain = ".dataviz.jp"
	}

	cookieName := os.Getenv("COOKIE_NAME")
	if cookieName == "" {
		cookieName = "sb-dataviz-auth-token"
	}

	var allowedOrigins []string
	if ao := os.Getenv("ALLOWED_ORIGINS"); ao != "" {
		for _, origin := range strings.Split(ao, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, strings.TrimRight(origin, "/"))
			}
		}
	}

	toolURLs := defaultToolURLs
	if raw := os.Getenv("TOOL_URLS"); raw != "" {
		toolURLs = map[string]string{}
		for _, pair := range strings.Split(raw, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
				toolURLs[parts[0]] = strings.TrimRight(parts[1], "/")
			}
		}
	}

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			redisDB = parsed
		}
	}

	storageBucket := os.Getenv("STORAGE_BUCKET")
	if storageBucket == "" {
		storageBucket = "user-projects"
	}

	storageRegion := os.Getenv("STORAGE_REGION")
	if storageRegion == "" {
		storageRegion = "ap-northeast-1"
	}

	cleanupWorkers := 2
	if raw := os.Getenv("CLEANUP_WORKERS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cleanupWorkers = parsed
		}
	}

	cleanupQueue := 100
	if raw := os.Getenv("CLEANUP_QUEUE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cleanupQueue = parsed
		}
	}

	return &Config{
		Port:                port,
		Environment:         environment,
		LogLevel:            logLevel,
		DatabaseURL:         databaseURL,
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		JwtSecret:           jwtSecret,
		CookieDomain:        cookieDomain,
		CookieName:          cookieName,
		AllowedOrigins:      allowedOrigins,
		ToolURLs:            toolURLs,
		StorageBucket:       storageBucket,
		StorageEndpoint:     os.Getenv("STORAGE_ENDPOINT"),
		StorageRegion:       storageRegion,
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID_PRO_MONTHLY"),
		FrontendURL:         strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"),
		TrialInviteCode:     os.Getenv("TRIAL_INVITE_CODE"),
		CleanupWorkers:      cleanupWorkers,
		CleanupQueue:        cleanupQueue,
	}, nil
}

// ParentDomain returns the registrable domain shared by the tool
// subdomains, without the leading dot ("dataviz.jp").
func (c *Config) ParentDomain() string {
	return strings.TrimPrefix(c.CookieDomain, ".")
}

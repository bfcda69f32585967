package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Хранилища событий
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreGoogle   = "google"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string
	Store       string

	DBDSN          string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string

	TelegramToken string
	AdminToken    string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleTokenPath    string
	CalendarID         string
	SpreadsheetID      string
	AuditSheet         string

	CORSOrigin   string
	ShopConfig   string
	SearchStep   time.Duration
	LockTimeout  time.Duration
	RateLimit    float64
	KeepAliveURL string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:        getEnv("ENV", "development"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		Store:              os.Getenv("STORE"),
		DBDSN:              os.Getenv("DB_DSN"),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		GoogleTokenPath:    getEnv("GOOGLE_TOKEN_PATH", "tokens.json"),
		CalendarID:         getEnv("CALENDAR_ID", "primary"),
		SpreadsheetID:      os.Getenv("SPREADSHEET_ID"),
		AuditSheet:         getEnv("AUDIT_SHEET", "Sheet1"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		ShopConfig:         os.Getenv("SHOP_CONFIG"),
		KeepAliveURL:       os.Getenv("KEEPALIVE_URL"),
	}

	// Без явного STORE: есть база - postgres, иначе память
	if cfg.Store == "" {
		if cfg.DBDSN != "" {
			cfg.Store = StorePostgres
		} else {
			cfg.Store = StoreMemory
		}
	}

	step, err := getInt("SEARCH_STEP_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.SearchStep = time.Duration(step) * time.Minute

	lockSeconds, err := getInt("LOCK_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	cfg.LockTimeout = time.Duration(lockSeconds) * time.Second

	rps, err := getInt("RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit = float64(rps)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded (store=%s, addr=%s)\n", cfg.Store, cfg.HTTPAddr)

	return cfg, nil
}

// Validate проверяет обязательные поля для выбранного хранилища
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for STORE=%s", c.Store)
		}
	case StoreGoogle:
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for STORE=%s", c.Store)
		}
		if c.GoogleRedirectURI == "" {
			return fmt.Errorf("GOOGLE_REDIRECT_URI is required for STORE=%s", c.Store)
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}

	if c.SearchStep <= 0 || time.Hour%c.SearchStep != 0 {
		return fmt.Errorf("SEARCH_STEP_MINUTES must divide an hour, got %s", c.SearchStep)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// GoogleEnabled нужен ли OAuth-клиент Google
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

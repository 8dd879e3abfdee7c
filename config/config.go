package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"nexus-bakery-api/store/gormstore"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver string
	DBPath   string

	// JWTSecret used to sign tokens
	JWTSecret []byte
	TokenTTL  time.Duration

	DeliveryFee      float64
	FeeInTotal       bool
	AllowBackorder   bool
	StrictWaste      bool
	StrictReferences bool

	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	AITimeout        time.Duration

	SeedDemo  bool
	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the process environment
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println(".env not loaded:", err)
	}

	return Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", ""),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:   getEnv("DB_PATH", "nexus_bakery.db"),

		JWTSecret: []byte(getEnv("JWT_SECRET", "nexus_atelier_dev_secret")),
		TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),

		DeliveryFee:      getFloat("DELIVERY_FEE", 1500),
		FeeInTotal:       strings.EqualFold(getEnv("FEE_POLICY", "separate"), "included"),
		AllowBackorder:   strings.EqualFold(getEnv("STOCK_POLICY", "clamp"), "backorder"),
		StrictWaste:      getBool("STRICT_WASTE", false),
		StrictReferences: getBool("STRICT_REFERENCES", false),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		AITimeout:        getDuration("AI_TIMEOUT", 8*time.Second),

		SeedDemo:  getBool("SEED_DEMO", true),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// OpenDB connects to SQLite and migrates every table the store needs
func OpenDB(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DBPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection keeps transactions serialized
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gormstore.New(db).Migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}

// getDuration accepts Go durations ("90s") or a bare number of seconds
func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

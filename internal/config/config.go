package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// AppCode is the application the service gates access for. Login and
	// session validation default to it when a request omits the code.
	AppCode string

	// SweepSecret guards the internal sweep trigger endpoint.
	SweepSecret    string
	SweepInterval  time.Duration
	SweepBatchSize int

	OTLPEndpoint string

	RedisAddr     string
	RedisPassword string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// DefaultAppCode is used when a request does not name an application.
const DefaultAppCode = "DEBACU_EVAL"

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:        getenv("APP_SERVICE", "evalgate"),
		AppVersion:     getenv("APP_VERSION", "0.1.0"),
		Environment:    getenv("ENVIRONMENT", "development"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		AppCode:        getenv("APP_CODE", DefaultAppCode),
		SweepSecret:    strings.TrimSpace(getenv("SWEEP_SECRET", "")),
		SweepInterval:  getenvDuration("SWEEP_INTERVAL", time.Hour),
		SweepBatchSize: getenvInt("SWEEP_BATCH_SIZE", 500),
		OTLPEndpoint:   getenv("OTLP_ENDPOINT", "localhost:4317"),
		RedisAddr:      strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		DBType:         getenv("DATABASE_TYPE", "postgres"),
		DBHost:         getenv("DATABASE_HOST", "localhost"),
		DBPort:         getenv("DATABASE_PORT", "5432"),
		DBName:         getenv("DATABASE_NAME", "postgres"),
		DBUser:         getenv("DATABASE_USER", "postgres"),
		DBPassword:     getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:      getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:  getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:  getenvInt("DATABASE_MAX_OPEN_CONN", 25),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

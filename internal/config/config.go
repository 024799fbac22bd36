package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	CORSOrigins string

	ReportAPIBaseURL  string        // Upstream report API, endpoints are appended to it
	ReportAPITimeout  time.Duration // Fixed per-request timeout, no retry
	ReportCatalogPath string        // Optional YAML file replacing the embedded catalogue
	Timezone          string        // Location used for day boundaries and display dates

	NotificationLimit  int
	DefaultRowsPerPage int
	SessionIdleTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "tcpos-reports"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "tcpos-reports"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000, http://localhost:3001"),

		ReportAPIBaseURL:  strings.TrimRight(getEnv("REPORT_API_BASE_URL", "https://students.aui.ma/api"), "/"),
		ReportAPITimeout:  getDuration("REPORT_API_TIMEOUT", 60*time.Second),
		ReportCatalogPath: getEnv("REPORT_CATALOG_PATH", ""),
		Timezone:          getEnv("TIMEZONE", "UTC"),

		NotificationLimit:  getInt("NOTIFICATION_LIMIT", 20),
		DefaultRowsPerPage: getInt("DEFAULT_ROWS_PER_PAGE", 50),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
	}, nil
}

// Location resolves Timezone, falling back to UTC for unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		log.Printf("Invalid value for %s: %q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		log.Printf("Invalid value for %s: %q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

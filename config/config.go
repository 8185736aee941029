package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	CSVInputPath    string
	CSVDelimiter    rune
	EnrichedCSVPath string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	TopN          int
	HistogramBins int

	HTTPAddr            string
	SnapshotDir         string
	SnapshotConcurrency int
	RateLimitMs         int
	ChromeBin           string

	LogLevel string
}

// Load reads the .env file (if any) and returns a populated Config struct.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		CSVInputPath:    getEnv("CSV_INPUT_PATH", "./data/cleaned_banggood_products.csv"),
		CSVDelimiter:    getEnvRune("CSV_DELIMITER", ','),
		EnrichedCSVPath: os.Getenv("ENRICHED_CSV_PATH"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "insights"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "insights123"),
		PostgresDB:       getEnv("POSTGRES_DB", "products_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		TopN:          getEnvInt("TOP_N", 10),
		HistogramBins: getEnvInt("HISTOGRAM_BINS", 20),

		HTTPAddr:            os.Getenv("HTTP_ADDR"),
		SnapshotDir:         os.Getenv("SNAPSHOT_DIR"),
		SnapshotConcurrency: getEnvInt("SNAPSHOT_CONCURRENCY", 2),
		RateLimitMs:         getEnvInt("RATE_LIMIT_MS", 250),
		ChromeBin:           getEnv("CHROME_BIN", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvRune accepts a single character or the literal "\t".
func getEnvRune(key string, fallback rune) rune {
	val := os.Getenv(key)
	if val == `\t` || strings.EqualFold(val, "tab") {
		return '\t'
	}
	if r := []rune(val); len(r) == 1 {
		return r[0]
	}
	return fallback
}

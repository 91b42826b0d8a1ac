package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"farmwise/pkg/agronomy"
)

var (
	DB     *gorm.DB
	App    *Config
	Logger *zap.Logger
)

// Config carries everything read from the environment, built once at
// startup and passed into the services explicitly. Nothing below the
// handler layer reads os.Getenv.
type Config struct {
	Port        string
	DatabaseDSN string
	JWTSecret   string

	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	WeatherBaseURL string

	// HarvestGraceDays widens the ready-to-overdue boundary of the
	// harvest window calculator.
	HarvestGraceDays int
}

// Load reads .env (if present) and the process environment into App.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	App = &Config{
		Port:             envOr("PORT", "8080"),
		DatabaseDSN:      os.Getenv("DB_DSN"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:       envDuration("LLM_TIMEOUT", 60*time.Second),
		WeatherBaseURL:   envOr("WEATHER_BASE_URL", "https://api.open-meteo.com"),
		HarvestGraceDays: envInt("HARVEST_GRACE_DAYS", agronomy.HarvestGraceDays),
	}
	return App
}

// Connect opens the Postgres connection, builds the shared logger and
// runs migrations.
func Connect() {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}

	DB, err = gorm.Open(postgres.Open(App.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrations(DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: %s=%q is not an integer, using %d", key, os.Getenv(key), fallback)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Warning: %s=%q is not a duration, using %s", key, os.Getenv(key), fallback)
	}
	return fallback
}

// Package config reads service configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Fallback store backends.
const (
	FallbackFile  = "file"
	FallbackRedis = "redis"
)

// Config holds everything the server needs to start.
type Config struct {
	HTTPAddr string

	Log struct {
		Level  string
		Format string
	}

	// Firestore is the remote document store. An empty ProjectID means the
	// store is not configured and every remote call degrades to the local
	// fallback, so the service stays usable without cloud credentials.
	Firestore struct {
		ProjectID string
		APIKey    string
	}

	// Fallback selects the local snapshot backend: "file" or "redis".
	Fallback struct {
		Backend       string
		DataDir       string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}

	// Capacity is the fixed maximum number of accepted registrations.
	Capacity int

	// DOB is the inclusive year range accepted for dates of birth.
	DOB struct {
		MinYear int
		MaxYear int
	}

	// PollInterval is the dashboard feed refresh period in seconds.
	PollIntervalSeconds int
}

// Load reads configuration, applying local-development defaults. A missing
// .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	c.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	c.Log.Level = getEnv("LOG_LEVEL", "info")
	c.Log.Format = getEnv("LOG_FORMAT", "json")

	c.Firestore.ProjectID = strings.TrimSpace(os.Getenv("FIRESTORE_PROJECT_ID"))
	c.Firestore.APIKey = strings.TrimSpace(os.Getenv("FIRESTORE_API_KEY"))

	c.Fallback.Backend = getEnv("FALLBACK_BACKEND", FallbackFile)
	c.Fallback.DataDir = getEnv("DATA_DIR", "./data")
	c.Fallback.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	c.Fallback.RedisPassword = os.Getenv("REDIS_PASSWORD")
	c.Fallback.RedisDB = parseInt(getEnv("REDIS_DB", "0"), 0)

	c.Capacity = parseInt(getEnv("CAPACITY", "250"), 250)
	c.DOB.MinYear = parseInt(getEnv("DOB_MIN_YEAR", "1990"), 1990)
	c.DOB.MaxYear = parseInt(getEnv("DOB_MAX_YEAR", "2007"), 2007)
	c.PollIntervalSeconds = parseInt(getEnv("POLL_INTERVAL_SECONDS", "5"), 5)

	if c.Fallback.Backend != FallbackFile && c.Fallback.Backend != FallbackRedis {
		return c, fmt.Errorf("FALLBACK_BACKEND must be %q or %q, got %q",
			FallbackFile, FallbackRedis, c.Fallback.Backend)
	}
	if c.Capacity <= 0 {
		return c, fmt.Errorf("CAPACITY must be positive, got %d", c.Capacity)
	}
	if c.DOB.MinYear > c.DOB.MaxYear {
		return c, fmt.Errorf("DOB year range is inverted: %d > %d", c.DOB.MinYear, c.DOB.MaxYear)
	}
	return c, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

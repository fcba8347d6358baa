package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the client needs at startup. All values come
// from the environment, optionally seeded by a .env file.
type Config struct {
	ListenAddr     string
	APIBaseURL     string
	DataDir        string
	MediaDir       string
	PollInterval   time.Duration
	MaxUploadBytes int64
	MediaTTL       time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ListenAddr:     getEnv("APP_ADDR", ":3000", false),
		APIBaseURL:     getEnv("VOXVID_API_URL", "http://127.0.0.1:8000", false),
		DataDir:        getEnv("DATA_DIR", "data", false),
		MediaDir:       getEnv("MEDIA_DIR", "data/media", false),
		PollInterval:   getDuration("POLL_INTERVAL", 5*time.Second),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 50*1024*1024),
		MediaTTL:       getDuration("MEDIA_TTL", 24*time.Hour),
	}
}

func getEnv(key, fallback string, required bool) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		if required {
			log.Fatalf("FATAL: Required environment variable %s is not set.", key)
		}
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, val, fallback)
		return fallback
	}
	return parsed
}

func getInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, val, fallback)
		return fallback
	}
	return parsed
}

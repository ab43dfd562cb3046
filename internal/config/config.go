package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	FeedURL    string
	APITimeout time.Duration
	DBPath     string
	Port       string

	// Collection configuration
	IntervalMinutes int

	// Analysis configuration
	ZeroBikeThreshold int
	LowBikeThreshold  int
}

func Load() *Config {
	return &Config{
		FeedURL:    getEnv("GBFS_API_URL", "https://gbfs.beryl.cc/v2_2/Plymouth/station_status.json"),
		APITimeout: time.Duration(getEnvInt("API_TIMEOUT", 10)) * time.Second,
		DBPath:     getEnv("DB_PATH", "data/bike_station_data.db"),
		Port:       getEnv("PORT", "8080"),

		IntervalMinutes: getEnvInt("COLLECTION_INTERVAL", 5),

		ZeroBikeThreshold: getEnvInt("ZERO_BIKE_THRESHOLD", 0),
		LowBikeThreshold:  getEnvInt("LOW_BIKE_THRESHOLD", 2),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	LogLevel  string
	LogFormat string

	ShiprocketBaseURL   string
	ShiprocketEmail     string
	ShiprocketPassword  string
	ShiprocketTimeoutMs int
	ShiprocketPageSize  int
	SyncLookbackDays    int

	CustomsInboxDir         string
	CustomsWatchIntervalSec int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "kbsync.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ShiprocketBaseURL:   getEnv("SHIPROCKET_BASE_URL", "https://apiv2.shiprocket.in/v1/external"),
		ShiprocketEmail:     getEnv("SHIPROCKET_EMAIL", ""),
		ShiprocketPassword:  getEnv("SHIPROCKET_PASSWORD", ""),
		ShiprocketTimeoutMs: getEnvInt("SHIPROCKET_TIMEOUT_MS", 30000),
		ShiprocketPageSize:  getEnvInt("SHIPROCKET_PAGE_SIZE", 100),
		SyncLookbackDays:    getEnvInt("SYNC_LOOKBACK_DAYS", 500),

		CustomsInboxDir:         getEnv("CUSTOMS_INBOX_DIR", filepath.Join(cwd, "data", "inbox")),
		CustomsWatchIntervalSec: getEnvInt("CUSTOMS_WATCH_INTERVAL_SEC", 60),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

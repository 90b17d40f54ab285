package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

type Env struct {
	Port     string
	LogLevel string

	// DataDir holds the settings file and the operation history database.
	DataDir string

	ServicePollInterval time.Duration

	CommandTimeout time.Duration
	ServiceTimeout time.Duration
	SQLTimeout     time.Duration

	HistoryRetentionDays int
}

var (
	once sync.Once
	env  Env
)

func GetEnv() Env {
	once.Do(func() {
		env = Env{
			Port:                 getString("POSADMIN_PORT", "8084"),
			LogLevel:             getString("POSADMIN_LOG_LEVEL", "info"),
			DataDir:              getString("POSADMIN_DATA_DIR", defaultDataDir()),
			ServicePollInterval:  getDuration("POSADMIN_SERVICE_POLL_INTERVAL", 5*time.Second),
			CommandTimeout:       getDuration("POSADMIN_COMMAND_TIMEOUT", 5*time.Minute),
			ServiceTimeout:       getDuration("POSADMIN_SERVICE_TIMEOUT", 1*time.Minute),
			SQLTimeout:           getDuration("POSADMIN_SQL_TIMEOUT", 10*time.Minute),
			HistoryRetentionDays: getInt("POSADMIN_HISTORY_RETENTION_DAYS", 90),
		}
	})

	return env
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pos_admin_tool"
	}
	return filepath.Join(home, ".pos_admin_tool")
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

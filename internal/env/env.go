package env

import (
	"os"
	"strconv"

	"github.com/hermesworks/receiptd/internal/shared/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Settings holds all process configuration, loaded from the environment
// with an optional .env file on top.
type Settings struct {
	DebugMode  bool
	DryRunMode bool

	// Upload server
	ServerPort int

	// Website poller. Polling is disabled when URL or token is empty.
	PollWebsiteURL string
	PollAuthToken  string
	PollInterval   int // seconds

	// Print job history database
	HistoryDBPath string
}

var Value Settings

// LoadEnv populates Value. An absent .env file is not an error; real
// environment variables always win over file entries.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load .env file", zap.Error(err))
		}
	}

	Value = Settings{
		DebugMode:      getBool("DEBUG_MODE", false),
		DryRunMode:     getBool("DRY_RUN_MODE", false),
		ServerPort:     getInt("SERVER_PORT", 8080),
		PollWebsiteURL: getString("POLL_WEBSITE_URL", ""),
		PollAuthToken:  getString("RECEIPT_PRINTER_API_TOKEN", ""),
		PollInterval:   getInt("POLL_INTERVAL", 10),
		HistoryDBPath:  getString("HISTORY_DB_PATH", "receiptd.db"),
	}
}

// PollerConfigured reports whether the website poller has enough
// configuration to run.
func PollerConfigured() bool {
	return Value.PollWebsiteURL != "" && Value.PollAuthToken != ""
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("Invalid boolean environment value",
			zap.String("key", key),
			zap.String("value", v))
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Invalid integer environment value",
			zap.String("key", key),
			zap.String("value", v))
		return fallback
	}
	return n
}

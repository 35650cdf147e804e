// Package config contains everything related to configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	RouterURL            string
	PollInterval         time.Duration
	RequestTimeout       time.Duration
	DatabasePath         string
	PreferencesPath      string
	LogPath              string
	LogLevel             string
	ChatUserID           string
	DesktopNotifications bool
}

// Default values
const (
	defaultRouterURL      = "http://localhost:8000"
	defaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultChatUserID     = "home_user"
	defaultLogLevel       = "info"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		RouterURL:            strings.TrimRight(getEnvString("ROUTER_URL", defaultRouterURL), "/"),
		PollInterval:         getEnvDuration("POLL_INTERVAL", defaultPollInterval),
		RequestTimeout:       getEnvDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		DatabasePath:         getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		PreferencesPath:      getEnvString("PREFERENCES_PATH", getDefaultPreferencesPath()),
		LogPath:              getEnvString("LOG_PATH", getDefaultLogPath()),
		LogLevel:             getEnvString("LOG_LEVEL", defaultLogLevel),
		ChatUserID:           getEnvString("CHAT_USER_ID", defaultChatUserID),
		DesktopNotifications: getEnvBool("DESKTOP_NOTIFICATIONS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure directories for every file we write exist
	for _, p := range []string{cfg.DatabasePath, cfg.PreferencesPath, cfg.LogPath} {
		if err := ensureDir(filepath.Dir(p)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RouterURL)
	if err != nil {
		return fmt.Errorf("invalid ROUTER_URL %q: %w", c.RouterURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid ROUTER_URL %q: scheme and host are required", c.RouterURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %v", c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "routerllm", ".env"),
			filepath.Join(home, ".routerllm", ".env"),
		)
	}

	// Parent directory (useful when running from cmd/)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}

// configDir returns the directory holding every file the client writes.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "routerllm")
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	return filepath.Join(configDir(), "history.db")
}

// getDefaultPreferencesPath returns the default path for the preferences JSON file.
func getDefaultPreferencesPath() string {
	return filepath.Join(configDir(), "preferences.json")
}

// getDefaultLogPath returns the default path for the log file.
func getDefaultLogPath() string {
	return filepath.Join(configDir(), "routerllm.log")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

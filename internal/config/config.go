package config

import (
	"os"
	"time"
)

const (
	ModeConnected = "connected"
	ModeLocal     = "local"
)

type Config struct {
	ListenAddr     string
	DBPath         string
	Mode           string
	ScannerBackend string
	OllamaHost     string
	OllamaModel    string
	ClaudeAPIKey   string
	ClaudeModel    string
	FramePath      string
	LogLevel       string
	LogFile        string
	SessionSecret  string
	SessionTTL     time.Duration
	AdminUser      string
	AdminPassword  string
	FeedRetry      time.Duration
}

func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		DBPath:         getEnv("DB_PATH", "/data/jdginv.db"),
		Mode:           getEnv("MODE", ModeConnected),
		ScannerBackend: getEnv("SCANNER_BACKEND", "none"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "moondream"),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		FramePath:      getEnv("FRAME_PATH", "/data/frames"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     getDuration("SESSION_TTL", 12*time.Hour),
		AdminUser:      getEnv("ADMIN_USER", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		FeedRetry:      getDuration("FEED_RETRY", 2*time.Second),
	}
}

// Connected reports whether the inventory is backed by the document store.
func (c *Config) Connected() bool {
	return c.Mode != ModeLocal
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getDuration parses a Go duration string, falling back to defaultVal when
// the variable is unset or malformed.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

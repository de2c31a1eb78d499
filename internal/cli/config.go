package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	timeout := 45 * time.Second
	if d, err := time.ParseDuration(os.Getenv("TRACKER_TIMEOUT")); err == nil && d > 0 {
		timeout = d
	}
	return &Config{
		ServerURL: getEnvOrDefault("TRACKER_SERVER", "http://localhost:8080"),
		Timeout:   timeout,
		Output:    "text",
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads .env (if present), the environment and the optional site table.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := FromEnv()

	if cfg.SitesFile != "" {
		sites, err := LoadSites(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sites = sites
	}

	return cfg, nil
}

// FromEnv builds a Config from environment variables with defaults.
// Malformed numbers fall back to their default.
func FromEnv() *Config {
	return &Config{
		ThingsBoard: ThingsBoardConfig{
			Host:  getenvDefault("THINGSBOARD_SERVER", "localhost"),
			Port:  getenvIntDefault("THINGSBOARD_PORT", 1883),
			Token: getenvDefault("GATEWAY_Access_TOKEN", ""),
		},
		Poll: PollConfig{
			Interval:       getenvDuration("READINGS_DELAY_IN_SECONDS", time.Second, DefaultInterval),
			ReadTimeout:    getenvDuration("READ_TIMEOUT_SECONDS", time.Second, DefaultReadTimeout),
			ProbeTimeout:   getenvDuration("PROBE_TIMEOUT_MS", time.Millisecond, DefaultProbeTimeout),
			MaxWorkers:     getenvIntDefault("MAX_WORKERS", DefaultMaxWorkers),
			RescanInterval: getenvDuration("RESCAN_INTERVAL_SECONDS", time.Second, DefaultRescanInterval),
		},
		Delivery: DeliveryConfig{
			Mode:      DeliveryMode(getenvDefault("DELIVERY_MODE", string(ModeEnqueue))),
			QueueSize: getenvIntDefault("QUEUE_SIZE", DefaultQueueSize),
		},
		MetricsAddr: getenvDefault("METRICS_ADDR", ""),
		SitesFile:   getenvDefault("SITES_FILE", ""),
		Sites:       DefaultSites(),
		Bus:         DefaultBus(),
	}
}

// LoadSites reads a YAML site table.
func LoadSites(path string) ([]Site, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sites %s: %w", path, err)
	}

	var f sitesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("config: parse sites %s: %w", path, err)
	}
	if len(f.Sites) == 0 {
		return nil, fmt.Errorf("config: no sites in %s", path)
	}
	return f.Sites, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
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

// getenvDuration reads an integer count of unit.
func getenvDuration(key string, unit, fallback time.Duration) time.Duration {
	return time.Duration(getenvIntDefault(key, int(fallback/unit))) * unit
}

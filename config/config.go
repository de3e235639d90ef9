package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Redis Config
const REDIS_DB_ADDRESS = "redis:6379"
const REDIS_DB_PASSWORD = ""
const REDIS_DB = 0

// Window config
const DEFAULT_WINDOW_RADIUS = 5
const RESIDENT_BUFFER_SIZE = 2

// Cache refresher: authoritative resync of resident periods.
const CACHE_REFRESHER_CRON = "*/30 * * * *"

// Upstream booking API
const BOOKING_ENDPOINT_BASE_V1 = "https://booking.internal/api/v1"

// Realtime event queue depth before ingestion blocks.
const EVENT_QUEUE_SIZE = 64

// Server
const LISTEN_ADDRESS = ":8080"

// Resources file paths
const RESOURCES_PATH_PREFIX = "resources"
const RESERVATIONS_FIXTURE = "reservations.json"
const CONVERSATIONS_FIXTURE = "conversations.json"

// BaseDir returns the absolute path of the project root directory
func BaseDir() string {
	// Check if PROJECT_ROOT is set
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root
	}

	// Default to the current working directory
	wd, err := os.Getwd()
	if err != nil {
		panic("Unable to determine working directory: " + err.Error())
	}

	return wd
}

func GetResourcePath(resource_file string) string {
	return filepath.Join(BaseDir(), RESOURCES_PATH_PREFIX, resource_file)
}

// Config is the optional YAML override file. Zero values fall back to the
// constants above.
type Config struct {
	Listen       string `yaml:"listen"`
	Env          string `yaml:"env"`
	RedisAddr    string `yaml:"redis_addr"`
	WindowRadius int    `yaml:"window_radius"`
	RefreshCron  string `yaml:"refresh"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Listen:       LISTEN_ADDRESS,
		Env:          "local",
		RedisAddr:    REDIS_DB_ADDRESS,
		WindowRadius: DEFAULT_WINDOW_RADIUS,
		RefreshCron:  CACHE_REFRESHER_CRON,
	}
}

// LoadConfig reads the YAML file at path, overlaying it on the defaults.
// A missing file is not an error: the defaults are returned as-is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Listen == "" {
		cfg.Listen = LISTEN_ADDRESS
	}
	if cfg.Env == "" {
		cfg.Env = "local"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = REDIS_DB_ADDRESS
	}
	if cfg.WindowRadius <= 0 {
		cfg.WindowRadius = DEFAULT_WINDOW_RADIUS
	}
	if cfg.RefreshCron == "" {
		cfg.RefreshCron = CACHE_REFRESHER_CRON
	}
	return cfg, nil
}

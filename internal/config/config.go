package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config represents the speedlaunch configuration
type Config struct {
	Title    string         `yaml:"title"`
	Guide    string         `yaml:"guide,omitempty"` // Guide markdown path; empty uses the embedded guide
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Features FeaturesConfig `yaml:"features"`
	API      APIConfig      `yaml:"api"`
}

// StorageConfig selects where progress is persisted
type StorageConfig struct {
	Backend string `yaml:"backend"`         // "memory", "file", "sqlite", "none"
	Path    string `yaml:"path,omitempty"`  // For file/sqlite: location (default depends on backend)
	Table   string `yaml:"table,omitempty"` // For sqlite: table name (default: speedlaunch_kv)
}

// GetBackend returns the backend (default: file)
func (c StorageConfig) GetBackend() string {
	if c.Backend == "" {
		return BackendFile
	}
	return c.Backend
}

// GetPath returns the storage path, falling back to a per-backend default
func (c StorageConfig) GetPath() string {
	if c.Path != "" {
		return c.Path
	}
	switch c.GetBackend() {
	case BackendFile:
		return filepath.Join(".speedlaunch", "state.yaml")
	case BackendSQLite:
		return "speedlaunch.db"
	default:
		return ""
	}
}

// Validate checks the storage backend is known
func (c StorageConfig) Validate() error {
	switch c.GetBackend() {
	case BackendMemory, BackendFile, BackendSQLite, BackendNone:
		return nil
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Backend)
	}
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// Addr returns host:port
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FeaturesConfig holds feature flags
type FeaturesConfig struct {
	HotReload bool `yaml:"hot_reload"`
}

// APIConfig holds action API configuration
type APIConfig struct {
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RateLimitConfig holds rate limiting configuration for the API
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // Rate limit in requests per second (default: 20)
	Burst             int     `yaml:"burst,omitempty"`               // Burst size (default: 40)
}

// GetRateLimitRPS returns the rate limit in requests per second (default: 20)
func (c APIConfig) GetRateLimitRPS() float64 {
	if c.RateLimit == nil || c.RateLimit.RequestsPerSecond <= 0 {
		return 20
	}
	return c.RateLimit.RequestsPerSecond
}

// GetRateLimitBurst returns the burst size (default: 40)
func (c APIConfig) GetRateLimitBurst() int {
	if c.RateLimit == nil || c.RateLimit.Burst <= 0 {
		return 40
	}
	return c.RateLimit.Burst
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title: "AI Speed-Launch System",
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		Server: ServerConfig{
			Port:  8080,
			Host:  "localhost",
			Debug: false,
		},
		Features: FeaturesConfig{
			HotReload: false,
		},
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	return nil
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// LoadFromDir looks for speedlaunch.yaml, then .speedlaunch.yaml, in the given directory.
// If neither is found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"speedlaunch.yaml", ".speedlaunch.yaml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

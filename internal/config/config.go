package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the medsearch service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Search   SearchConfig   `yaml:"search"`
	Remote   RemoteConfig   `yaml:"remote"`
	Recents  RecentsConfig  `yaml:"recents"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Search backends.
const (
	BackendMock   = "mock"
	BackendRemote = "remote"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds key-value store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Standalone       bool     `yaml:"standalone"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SearchConfig holds search engine settings.
type SearchConfig struct {
	Backend       string `yaml:"backend"` // mock, remote (default: mock)
	DebounceMs    int    `yaml:"debounce_ms"`
	MockLatencyMs *int   `yaml:"mock_latency_ms"` // nil = 600, 0 disables
	MemoSize      int    `yaml:"memo_size"`
	CatalogPath   string `yaml:"catalog_path"` // empty = built-in sample catalog
}

// RemoteConfig holds remote search API settings.
type RemoteConfig struct {
	BaseURL    string  `yaml:"base_url"`
	TimeoutSec int     `yaml:"timeout_sec"`
	RatePerSec float64 `yaml:"rate_per_sec"` // 0 = unlimited
	Burst      int     `yaml:"burst"`
}

// RecentsConfig holds recents cache settings.
type RecentsConfig struct {
	Capacity int `yaml:"capacity"`
}

// SessionConfig holds search session registry settings.
type SessionConfig struct {
	IdleTTLSec       int `yaml:"idle_ttl_sec"`
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
}

// Debounce returns the debounce delay.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// MockLatency returns the simulated latency of the mock backend.
func (c SearchConfig) MockLatency() time.Duration {
	if c.MockLatencyMs == nil {
		return defaultMockLatencyMs * time.Millisecond
	}
	return time.Duration(*c.MockLatencyMs) * time.Millisecond
}

// Timeout returns the remote request timeout.
func (c RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// IdleTTL returns how long an untouched session lives.
func (c SessionConfig) IdleTTL() time.Duration {
	return time.Duration(c.IdleTTLSec) * time.Second
}

// SweepInterval returns the idle session sweep period.
func (c SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

const defaultMockLatencyMs = 600

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from a YAML file path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "medsearch:"
	}
	if c.Search.Backend == "" {
		c.Search.Backend = BackendMock
	}
	if c.Search.DebounceMs <= 0 {
		c.Search.DebounceMs = 400
	}
	if c.Search.MemoSize <= 0 {
		c.Search.MemoSize = 128
	}
	if c.Remote.TimeoutSec <= 0 {
		c.Remote.TimeoutSec = 10
	}
	if c.Remote.RatePerSec > 0 && c.Remote.Burst <= 0 {
		c.Remote.Burst = 1
	}
	if c.Recents.Capacity <= 0 {
		c.Recents.Capacity = 10
	}
	if c.Session.IdleTTLSec <= 0 {
		c.Session.IdleTTLSec = 1800
	}
	if c.Session.SweepIntervalSec <= 0 {
		c.Session.SweepIntervalSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q, %q or %q, got %q",
			DriverValkey, DriverRedis, DriverMemory, c.Database.Driver)
	}
	switch c.Search.Backend {
	case BackendMock:
		if c.Search.MockLatencyMs != nil && *c.Search.MockLatencyMs < 0 {
			return fmt.Errorf("search.mock_latency_ms must not be negative, got %d", *c.Search.MockLatencyMs)
		}
	case BackendRemote:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote.base_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("search.backend must be %q or %q, got %q", BackendMock, BackendRemote, c.Search.Backend)
	}
	if c.Remote.RatePerSec < 0 {
		return fmt.Errorf("remote.rate_per_sec must not be negative, got %g", c.Remote.RatePerSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

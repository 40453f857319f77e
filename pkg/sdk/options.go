package medsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "memory" (default), "valkey" or "redis"
	addrs      []string
	password   string
	standalone bool
	keyPrefix  string

	remoteURL   string
	catalogPath string
	mockLatency time.Duration
	debounce    time.Duration

	recentsCapacity int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey persists recents in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis persists recents in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithStandalone disables cluster topology discovery.
func WithStandalone() Option {
	return optionFunc(func(c *clientConfig) {
		c.standalone = true
	})
}

// WithKeyPrefix sets the storage key prefix. Default: "medsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithRemote searches the catalog API at baseURL instead of the local catalog.
func WithRemote(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.remoteURL = baseURL
	})
}

// WithCatalogFile loads the local catalog from a YAML or JSON file.
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithMockLatency delays every local catalog search. Default: none.
func WithMockLatency(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.mockLatency = d
	})
}

// WithDebounce sets the session quiet period before a query runs.
// Default: 400ms.
func WithDebounce(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.debounce = d
	})
}

// WithRecentsCapacity bounds the recents list. Default: 10.
func WithRecentsCapacity(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.recentsCapacity = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

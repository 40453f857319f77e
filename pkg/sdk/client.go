package medsearch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/db"
	dbMemory "github.com/kailas-cloud/medsearch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/medsearch/internal/db/redis"
	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	catalogrepo "github.com/kailas-cloud/medsearch/internal/repository/catalog"
	"github.com/kailas-cloud/medsearch/internal/repository/recents"
	"github.com/kailas-cloud/medsearch/internal/transport/remote"
	"github.com/kailas-cloud/medsearch/internal/usecase/compose"
	healthuc "github.com/kailas-cloud/medsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/medsearch/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/medsearch/internal/usecase/session"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "medsearch:"
)

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, query string, filters filter.Set) ([]result.Result, error)
}

type recentsUseCase interface {
	Read(ctx context.Context) []result.Result
	Clear(ctx context.Context)
}

type sessionRegistry interface {
	Create() *sessionuc.Session
	Delete(id string) error
	Close()
}

type catalogBackend interface {
	searchuc.Backend
	healthuc.CatalogChecker
}

// Client is the medsearch SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.Store
	search    searchUseCase
	recents   recentsUseCase
	sessions  sessionRegistry
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. The provided context is used for the initial
// readiness check of the recents store.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:          "memory",
		keyPrefix:       defaultKeyPrefix,
		debounce:        searchuc.DefaultDebounce,
		recentsCapacity: recents.DefaultCapacity,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	backend, name, err := createBackend(cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("medsearch: store not ready: %w", err)
	}

	return wireClient(store, backend, name, cfg, obs)
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return dbMemory.NewStore(), nil
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			Standalone: cfg.standalone,
		})
		if err != nil {
			return nil, fmt.Errorf("medsearch: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("medsearch: unknown driver %q", cfg.driver)
	}
}

func createBackend(cfg *clientConfig) (catalogBackend, string, error) {
	if cfg.remoteURL != "" {
		c, err := remote.New(remote.Config{BaseURL: cfg.remoteURL})
		if err != nil {
			return nil, "", fmt.Errorf("medsearch: %w", err)
		}
		return c, remote.BackendName, nil
	}

	records := domcat.Sample()
	if cfg.catalogPath != "" {
		loaded, err := domcat.LoadFile(cfg.catalogPath)
		if err != nil {
			return nil, "", fmt.Errorf("medsearch: %w", err)
		}
		records = loaded
	}
	m, err := catalogrepo.NewMemory(records, cfg.mockLatency)
	if err != nil {
		return nil, "", fmt.Errorf("medsearch: %w", err)
	}
	return m, catalogrepo.BackendName, nil
}

func wireClient(
	store db.Store, backend catalogBackend, backendName string,
	cfg *clientConfig, obs *observer,
) (*Client, error) {
	logger := zap.NewNop()

	engine := searchuc.New(backend, backendName, logger)
	composer, err := compose.NewComposer(compose.DefaultMemoSize)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("medsearch: %w", err)
	}
	rc := recents.New(store, cfg.keyPrefix, cfg.recentsCapacity, logger)

	sessions := sessionuc.NewManager(sessionuc.Config{
		NewSearcher: func() sessionuc.Searcher { return searchuc.NewDebounced(engine, cfg.debounce) },
		Composer:    composer,
		Recents:     rc,
		Navigator:   sessionuc.LogNavigator{},
		Logger:      logger,
	})

	return &Client{
		store:     store,
		search:    engine,
		recents:   rc,
		sessions:  sessions,
		healthSvc: healthuc.New(store, backend),
		obs:       obs,
	}, nil
}

// Close aborts every session and releases the store.
func (c *Client) Close() {
	if c.sessions != nil {
		c.sessions.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks recents store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs a single query with no debounce. An empty query returns no
// results.
func (c *Client) Search(ctx context.Context, query string, filters ...FilterKey) (_ []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	set, err := filterSet(filters)
	if err != nil {
		return nil, err
	}
	res, err := c.search.Search(ctx, query, set)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return resultsFromDomain(res), nil
}

// Filters lists the available filters in display order.
func (c *Client) Filters() []Filter {
	cat := filter.Catalog()
	out := make([]Filter, len(cat))
	for i, d := range cat {
		out[i] = Filter{Key: FilterKey(d.Key), Label: d.Label, Description: d.Description}
	}
	return out
}

// Recents returns recently selected results, most recent first.
func (c *Client) Recents(ctx context.Context) []Result {
	return resultsFromDomain(c.recents.Read(ctx))
}

// ClearRecents empties the recents list.
func (c *Client) ClearRecents(ctx context.Context) {
	start := time.Now()
	c.recents.Clear(ctx)
	c.obs.observe("recents.clear", start, nil)
}

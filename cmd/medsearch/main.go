package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/medsearch/internal/config"
	"github.com/kailas-cloud/medsearch/internal/db"
	dbMemory "github.com/kailas-cloud/medsearch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/medsearch/internal/db/redis"
	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	logpkg "github.com/kailas-cloud/medsearch/internal/logger"
	"github.com/kailas-cloud/medsearch/internal/metrics"
	catalogrepo "github.com/kailas-cloud/medsearch/internal/repository/catalog"
	"github.com/kailas-cloud/medsearch/internal/repository/recents"
	chiTransport "github.com/kailas-cloud/medsearch/internal/transport/chi"
	"github.com/kailas-cloud/medsearch/internal/transport/remote"
	"github.com/kailas-cloud/medsearch/internal/usecase/compose"
	healthuc "github.com/kailas-cloud/medsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/medsearch/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/medsearch/internal/usecase/session"
	"github.com/kailas-cloud/medsearch/internal/version"
)

// catalogBackend is what the composition root needs from a search backend.
type catalogBackend interface {
	searchuc.Backend
	chiTransport.Catalog
	healthuc.CatalogChecker
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting medsearch API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("search_backend", cfg.Search.Backend),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	backend, backendName, err := newCatalogBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("create catalog backend: %w", err)
	}

	engine := searchuc.New(backend, backendName, logger)
	composer, err := compose.NewComposer(cfg.Search.MemoSize)
	if err != nil {
		return fmt.Errorf("create filter composer: %w", err)
	}
	recentsCache := recents.New(store, cfg.Storage.KeyPrefix, cfg.Recents.Capacity, logger)

	sessions := sessionuc.NewManager(sessionuc.Config{
		NewSearcher: func() sessionuc.Searcher {
			return searchuc.NewDebounced(engine, cfg.Search.Debounce())
		},
		Composer:  composer,
		Recents:   recentsCache,
		Navigator: sessionuc.LogNavigator{},
		IdleTTL:   cfg.Session.IdleTTL(),
		Logger:    logger,
	})
	defer sessions.Close()

	healthSvc := healthuc.New(store, backend)

	server := chiTransport.NewServer(backend, sessions, recentsCache, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorResponseCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, cfg.Session.SweepInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newStore creates the key-value store for the configured driver.
func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DB:         cfg.DB,
			Standalone: cfg.Standalone,
		})
	case config.DriverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newCatalogBackend builds the configured search backend and its metrics label.
func newCatalogBackend(cfg config.Config, logger *zap.Logger) (catalogBackend, string, error) {
	switch cfg.Search.Backend {
	case config.BackendRemote:
		client, err := remote.New(remote.Config{
			BaseURL:    cfg.Remote.BaseURL,
			Timeout:    cfg.Remote.Timeout(),
			RatePerSec: cfg.Remote.RatePerSec,
			Burst:      cfg.Remote.Burst,
			Logger:     logger,
		})
		if err != nil {
			return nil, "", err
		}
		logger.Info("Using remote catalog", zap.String("base_url", cfg.Remote.BaseURL))
		return client, remote.BackendName, nil

	case config.BackendMock:
		records := domcat.Sample()
		if cfg.Search.CatalogPath != "" {
			loaded, err := domcat.LoadFile(cfg.Search.CatalogPath)
			if err != nil {
				return nil, "", err
			}
			records = loaded
		}
		mem, err := catalogrepo.NewMemory(records, cfg.Search.MockLatency())
		if err != nil {
			return nil, "", err
		}
		logger.Info("Using in-memory catalog",
			zap.Int("records", mem.Len()),
			zap.Duration("latency", cfg.Search.MockLatency()),
		)
		return mem, catalogrepo.BackendName, nil

	default:
		return nil, "", fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/metrics"
)

// Engine runs catalog queries against one backend and maps the records.
type Engine struct {
	backend Backend
	name    string
	logger  *zap.Logger
}

// New creates a search engine. name labels backend metrics.
func New(backend Backend, name string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{backend: backend, name: name, logger: logger}
}

// Search returns display results for query.
// An empty query yields an empty result without calling the backend.
// When ctx is done the error wraps domain.ErrSearchAborted and no results are
// returned; other backend failures wrap domain.ErrSearchFailed.
func (e *Engine) Search(ctx context.Context, query string, filters filter.Set) ([]result.Result, error) {
	if query == "" {
		e.count(metrics.OutcomeEmpty)
		return []result.Result{}, nil
	}

	start := time.Now()
	records, err := e.backend.Search(ctx, query, filters)
	metrics.SearchBackendDuration.WithLabelValues(e.name).Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		e.count(metrics.OutcomeAborted)
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchAborted, context.Cause(ctx))
	}
	if err != nil {
		e.count(metrics.OutcomeFailed)
		e.logger.Warn("search backend failed",
			zap.String("backend", e.name),
			zap.String("filters", filters.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}

	e.count(metrics.OutcomeOK)
	return result.Map(records), nil
}

func (e *Engine) count(outcome string) {
	metrics.SearchRequestsTotal.WithLabelValues(e.name, outcome).Inc()
}

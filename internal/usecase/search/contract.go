package search

import (
	"context"

	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

// Backend returns catalog records matching a query under engine-level filters.
// It must honour ctx cancellation.
type Backend interface {
	Search(ctx context.Context, query string, filters filter.Set) ([]domcat.Record, error)
}

// Searcher runs a query to display results.
type Searcher interface {
	Search(ctx context.Context, query string, filters filter.Set) ([]result.Result, error)
}

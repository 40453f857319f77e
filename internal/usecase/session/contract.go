package session

import (
	"context"

	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

// Searcher dispatches debounced searches for one session.
type Searcher interface {
	Schedule(ctx context.Context, query string, filters filter.Set) func() ([]result.Result, error)
	Cancel()
}

// Composer narrows medicine results by the applied filter set.
type Composer interface {
	Apply(results []result.Result, active filter.Set) []result.Result
}

// Recents reads and records recently selected results.
type Recents interface {
	Read(ctx context.Context) []result.Result
	Record(ctx context.Context, item result.Result) []result.Result
}

// Navigator hands a selected result's route to the routing layer.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

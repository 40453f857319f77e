package compose

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/metrics"
)

// DefaultMemoSize bounds the composer cache when no size is configured.
const DefaultMemoSize = 128

// memoKey identifies an input by slice identity. Result slices are never
// mutated after mapping, so identity implies equal contents.
type memoKey struct {
	first  *result.Result
	length int
	set    filter.Set
}

// Composer memoizes Apply per input slice and filter set.
type Composer struct {
	cache *lru.Cache[memoKey, []result.Result]
}

// NewComposer creates a composer holding at most size entries.
func NewComposer(size int) (*Composer, error) {
	if size <= 0 {
		size = DefaultMemoSize
	}
	cache, err := lru.New[memoKey, []result.Result](size)
	if err != nil {
		return nil, fmt.Errorf("create compose cache: %w", err)
	}
	return &Composer{cache: cache}, nil
}

// Apply returns Apply(results, active), reusing the previous output for the
// same input slice and set. Callers must not mutate the returned slice.
func (c *Composer) Apply(results []result.Result, active filter.Set) []result.Result {
	if active.IsEmpty() || len(results) == 0 {
		return results
	}

	key := memoKey{first: &results[0], length: len(results), set: active}
	if out, ok := c.cache.Get(key); ok {
		metrics.FilterComposeCacheTotal.WithLabelValues("hit").Inc()
		return out
	}
	metrics.FilterComposeCacheTotal.WithLabelValues("miss").Inc()

	out := Apply(results, active)
	c.cache.Add(key, out)
	return out
}

// Len reports the number of memoized entries.
func (c *Composer) Len() int { return c.cache.Len() }

// Package compose applies the user's filter set to search results and holds
// the filter panel state.
package compose

import (
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

// Apply keeps the results satisfying every predicate of active, in order.
// An empty set returns results unchanged. A missing attribute never
// satisfies a predicate, so pharmacies drop out under any non-empty set.
func Apply(results []result.Result, active filter.Set) []result.Result {
	if active.IsEmpty() {
		return results
	}
	out := make([]result.Result, 0, len(results))
	for i := range results {
		if active.Admits(results[i].Attributes()) {
			out = append(out, results[i])
		}
	}
	return out
}

package search

import (
	"context"
	"sync"

	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

// mockBackend implements Backend for tests.
type mockBackend struct {
	searchFn func(ctx context.Context, query string, filters filter.Set) ([]domcat.Record, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockBackend) Search(ctx context.Context, query string, filters filter.Set) ([]domcat.Record, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, filters)
	}
	return domcat.Sample(), nil
}

func (m *mockBackend) queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// mockSearcher implements Searcher for tests.
type mockSearcher struct {
	searchFn func(ctx context.Context, query string, filters filter.Set) ([]result.Result, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockSearcher) Search(ctx context.Context, query string, filters filter.Set) ([]result.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query, filters)
	}
	return []result.Result{{ID: query, Title: query}}, nil
}

func (m *mockSearcher) queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// generation reads the dispatch counter of d.
func generation(d *Debounced) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

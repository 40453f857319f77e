package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/usecase/compose"
	"github.com/kailas-cloud/medsearch/internal/usecase/search"
)

const testDelay = 5 * time.Millisecond

type engineCall struct {
	query   string
	filters filter.Set
}

// mockEngine implements search.Searcher over the sample catalog.
type mockEngine struct {
	mu    sync.Mutex
	calls []engineCall
	err   error
}

func (m *mockEngine) Search(_ context.Context, query string, filters filter.Set) ([]result.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, engineCall{query: query, filters: filters})
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []catalog.Record
	for _, r := range catalog.Sample() {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return result.Map(out), nil
}

func (m *mockEngine) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockEngine) history() []engineCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]engineCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// mockRecents implements Recents in memory.
type mockRecents struct {
	mu    sync.Mutex
	items []result.Result
}

func (m *mockRecents) Read(context.Context) []result.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]result.Result, len(m.items))
	copy(out, m.items)
	return out
}

func (m *mockRecents) Record(_ context.Context, item result.Result) []result.Result {
	m.mu.Lock()
	next := []result.Result{item}
	for _, r := range m.items {
		if r.ID != item.ID {
			next = append(next, r)
		}
	}
	m.items = next
	m.mu.Unlock()
	return m.Read(context.Background())
}

// mockNavigator records navigation requests.
type mockNavigator struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (m *mockNavigator) Navigate(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	return m.err
}

func (m *mockNavigator) visited() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

type fixture struct {
	manager *Manager
	engine  *mockEngine
	recents *mockRecents
	nav     *mockNavigator
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	engine := &mockEngine{}
	composer, err := compose.NewComposer(16)
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	f := &fixture{
		engine:  engine,
		recents: &mockRecents{},
		nav:     &mockNavigator{},
	}
	f.manager = NewManager(Config{
		NewSearcher: func() Searcher { return search.NewDebounced(engine, delay) },
		Composer:    composer,
		Recents:     f.recents,
		Navigator:   f.nav,
		Logger:      zap.NewNop(),
	})
	t.Cleanup(f.manager.Close)
	return f
}

func settle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("search did not settle: %v", err)
	}
}

func resultIDs(rs []result.Result) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errBackend = errors.New("backend down")

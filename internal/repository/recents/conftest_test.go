package recents

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/medsearch/internal/db"
	"github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	delErr error
	gets   int
	sets   int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func (m *mockStore) raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func item(id string) result.Result {
	return result.Result{ID: id, Type: catalog.KindMedicine, Title: "Medicine " + id, Subtitle: "Tablet · 10 tablets"}
}

func items(n int) []result.Result {
	out := make([]result.Result, n)
	for i := range out {
		out[i] = item(fmt.Sprintf("m%d", i+1))
	}
	return out
}

func ids(rs []result.Result) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID
	}
	return out
}

func equal(a, b []string) bool {
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

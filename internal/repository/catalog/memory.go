// Package catalog serves catalog records from an in-process snapshot.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain"
	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
)

// BackendName is the metrics label of the in-memory backend.
const BackendName = "mock"

// Memory is the mock search backend. Each Search waits out the configured
// latency before matching, and gives up early when ctx is done.
type Memory struct {
	latency time.Duration

	mu      sync.RWMutex
	records []domcat.Record
	byID    map[string]int
}

// NewMemory creates a backend over records. Duplicate ids are rejected.
func NewMemory(records []domcat.Record, latency time.Duration) (*Memory, error) {
	m := &Memory{latency: latency}
	if err := m.Replace(records); err != nil {
		return nil, err
	}
	return m, nil
}

// Replace swaps the snapshot atomically.
func (m *Memory) Replace(records []domcat.Record) error {
	if err := domcat.Validate(records); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}

	snapshot := make([]domcat.Record, len(records))
	copy(snapshot, records)
	byID := make(map[string]int, len(snapshot))
	for i, r := range snapshot {
		byID[r.ID()] = i
	}

	m.mu.Lock()
	m.records = snapshot
	m.byID = byID
	m.mu.Unlock()
	return nil
}

// Search returns records matching query that pass filters, in catalog order.
func (m *Memory) Search(ctx context.Context, query string, filters filter.Set) ([]domcat.Record, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	folded := domcat.Fold(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domcat.Record, 0, len(m.records))
	for _, r := range m.records {
		if !r.MatchesFolded(folded) || !r.PassesFilters(filters) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Get returns a record by id.
func (m *Memory) Get(_ context.Context, id string) (domcat.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok {
		return domcat.Record{}, fmt.Errorf("catalog record %q: %w", id, domain.ErrNotFound)
	}
	return m.records[i], nil
}

// Len returns the snapshot size.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// HealthCheck fails only on an empty snapshot.
func (m *Memory) HealthCheck(_ context.Context) error {
	if m.Len() == 0 {
		return fmt.Errorf("catalog is empty: %w", domain.ErrNotFound)
	}
	return nil
}

func (m *Memory) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}

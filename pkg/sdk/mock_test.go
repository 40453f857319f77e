package medsearch

import (
	"context"

	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, query string, filters filter.Set) ([]result.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, query string, filters filter.Set) ([]result.Result, error) {
	return m.searchFn(ctx, query, filters)
}

// --- recentsUseCase mock ---

type mockRecentsUC struct {
	items   []result.Result
	cleared int
}

func (m *mockRecentsUC) Read(context.Context) []result.Result { return m.items }

func (m *mockRecentsUC) Clear(context.Context) {
	m.cleared++
	m.items = nil
}

// --- helpers ---

func testClient(search searchUseCase, recents recentsUseCase) *Client {
	return &Client{search: search, recents: recents}
}

func boolPtr(b bool) *bool { return &b }

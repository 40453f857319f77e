package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/db/memory"
	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	catalogrepo "github.com/kailas-cloud/medsearch/internal/repository/catalog"
	"github.com/kailas-cloud/medsearch/internal/repository/recents"
	"github.com/kailas-cloud/medsearch/internal/usecase/compose"
	healthuc "github.com/kailas-cloud/medsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/medsearch/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/medsearch/internal/usecase/session"
)

const testDebounce = time.Millisecond

// mockCatalog implements Catalog with canned answers.
type mockCatalog struct {
	records []domcat.Record
	err     error
}

func (m *mockCatalog) Search(context.Context, string, filter.Set) ([]domcat.Record, error) {
	return m.records, m.err
}

func (m *mockCatalog) Get(context.Context, string) (domcat.Record, error) {
	if m.err != nil {
		return domcat.Record{}, m.err
	}
	return m.records[0], nil
}

type fixture struct {
	server   *httptest.Server
	sessions *sessionuc.Manager
	recents  *recents.Cache
}

// newFixture wires the HTTP API over the sample catalog. A non-nil cat
// replaces the catalog endpoints' backend.
func newFixture(t *testing.T, cat Catalog) *fixture {
	t.Helper()

	mem, err := catalogrepo.NewMemory(domcat.Sample(), 0)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	if cat == nil {
		cat = mem
	}

	logger := zap.NewNop()
	store := memory.NewStore()
	engine := searchuc.New(mem, catalogrepo.BackendName, logger)
	composer, err := compose.NewComposer(compose.DefaultMemoSize)
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	rc := recents.New(store, "test:", recents.DefaultCapacity, logger)

	sessions := sessionuc.NewManager(sessionuc.Config{
		NewSearcher: func() sessionuc.Searcher { return searchuc.NewDebounced(engine, testDebounce) },
		Composer:    composer,
		Recents:     rc,
		Navigator:   sessionuc.LogNavigator{},
		Logger:      logger,
	})

	srv := NewServer(cat, sessions, rc, healthuc.New(store, mem), logger)
	r := chi.NewRouter()
	r.Use(BearerAuthMiddleware(nil))
	HandlerWithOptions(srv, ChiServerOptions{BaseRouter: r})

	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		ts.Close()
		sessions.Close()
		store.Close()
	})
	return &fixture{server: ts, sessions: sessions, recents: rc}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

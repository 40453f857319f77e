package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "://bad"} {
		if _, err := New(Config{BaseURL: u}); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}

func TestSearchParams(t *testing.T) {
	v := SearchParams("pan", filter.Full())
	want := map[string]string{
		"q":                    "pan",
		"available":            "true",
		"maxDeliveryTime":      "15",
		"maxDistance":          "3",
		"requiresPrescription": "true",
	}
	for k, w := range want {
		if got := v.Get(k); got != w {
			t.Errorf("%s = %q, want %q", k, got, w)
		}
	}

	v = SearchParams("pan", filter.NewSet(filter.Delivery))
	if len(v) != 2 || v.Get("maxDeliveryTime") != "15" {
		t.Errorf("expected q and maxDeliveryTime only, got %v", v)
	}
}

func TestSearch_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "pan" || r.URL.Query().Get("available") != "true" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"m1","type":"medicine","name":"Panadol 500mg","form":"Tablet","quantity":12,
			 "category":["pain-killer"],"isAvailable":true,"deliveryTimeMinutes":10,
			 "pharmacyDistanceKm":2.3,"requiresPrescription":true},
			{"id":"p1","type":"pharmacy","name":"City Pharmacy","deliveryTime":15,"distance":2.55}
		]`))
	})

	recs, err := c.Search(context.Background(), "pan", filter.NewSet(filter.Availability))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Kind() != catalog.KindMedicine || recs[1].Kind() != catalog.KindPharmacy {
		t.Errorf("unexpected kinds: %s %s", recs[0].Kind(), recs[1].Kind())
	}
}

func TestSearch_NullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	recs, err := c.Search(context.Background(), "x", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", recs)
	}
}

func TestSearch_IncompleteMedicine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"m9","type":"medicine","name":"Ibuprofen","form":"Tablet",
			"quantity":10,"isAvailable":true,"requiresPrescription":false}]`))
	})

	recs, err := c.Search(context.Background(), "ibu", filter.NewSet(filter.Delivery, filter.PharmacyDistance))
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.StatusCode != http.StatusOK || !strings.Contains(te.Message, "deliveryTimeMinutes") {
		t.Errorf("unexpected error: %+v", te)
	}
	if recs != nil {
		t.Errorf("incomplete records must not be returned, got %v", recs)
	}
}

func TestSearch_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantFields int
	}{
		{"message and field errors", 422, `{"message":"Invalid query","errors":{"q":["too short"]}}`, "Invalid query", 1},
		{"no message", 400, `{}`, "Something went wrong", 0},
		{"server error without body", 503, ``, "Something went wrong", 0},
		{"non json body", 500, `<html>oops</html>`, "Something went wrong", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Search(context.Background(), "x", 0)
			var te *domain.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected *domain.TransportError, got %T %v", err, err)
			}
			if te.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", te.StatusCode, tt.status)
			}
			if te.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", te.Message, tt.wantMsg)
			}
			if len(te.Errors) != tt.wantFields {
				t.Errorf("errors = %v", te.Errors)
			}
		})
	}
}

func TestSearch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.Search(context.Background(), "x", 0)
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *domain.TransportError, got %T %v", err, err)
	}
	if te.Message != "Network error" || te.StatusCode != 0 {
		t.Errorf("unexpected error: %+v", te)
	}
}

func TestSearch_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Search(ctx, "x", 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		t.Error("cancellation must not be reported as a transport error")
	}
}

func TestSearch_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RatePerSec: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Search(context.Background(), "a", 0); err != nil {
		t.Fatalf("first search: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Search(ctx, "b", 0); err == nil {
		t.Fatal("expected the limiter to block the second search")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}
}

func TestGet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/catalog/p1":
			_, _ = w.Write([]byte(`{"id":"p1","type":"pharmacy","name":"City Pharmacy","deliveryTime":15,"distance":2.55}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"not_found","message":"not found"}`))
		}
	})

	rec, err := c.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Name() != "City Pharmacy" {
		t.Errorf("unexpected record: %s", rec.Name())
	}

	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
	healthy.Store(false)
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("expected error for 503")
	}
}

// Package remote is the HTTP client of a remote catalog search API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/medsearch/internal/domain"
	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
)

// BackendName is the metrics label of the remote backend.
const BackendName = "remote"

const (
	networkErrorMessage = "Network error"
	maxErrorBody        = 64 << 10
)

// Query parameter names of the /search contract.
const (
	ParamQuery                = "q"
	ParamAvailable            = "available"
	ParamMaxDeliveryTime      = "maxDeliveryTime"
	ParamMaxDistance          = "maxDistance"
	ParamRequiresPrescription = "requiresPrescription"
)

// Config holds remote client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	Logger     *zap.Logger
}

// Client talks to GET /search, GET /catalog/{id} and GET /health.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a remote client. A zero RatePerSec disables rate limiting.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// SearchParams encodes a query and its engine-level filters as /search parameters.
func SearchParams(query string, filters filter.Set) url.Values {
	v := url.Values{}
	v.Set(ParamQuery, query)
	for _, k := range filters.Keys() {
		switch k {
		case filter.Availability:
			v.Set(ParamAvailable, "true")
		case filter.Delivery:
			v.Set(ParamMaxDeliveryTime, formatLimit(filter.MaxDeliveryMinutes))
		case filter.PharmacyDistance:
			v.Set(ParamMaxDistance, formatLimit(filter.MaxPharmacyDistanceKm))
		case filter.Prescription:
			v.Set(ParamRequiresPrescription, "true")
		}
	}
	return v
}

// Search calls GET /search. Failures are *domain.TransportError except
// context cancellation, which is returned as is.
func (c *Client) Search(ctx context.Context, query string, filters filter.Set) ([]domcat.Record, error) {
	var records []domcat.Record
	if err := c.getJSON(ctx, "search", SearchParams(query, filters), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domcat.Record{}
	}
	return records, nil
}

// Get calls GET /catalog/{id}. A 404 maps to domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (domcat.Record, error) {
	var rec domcat.Record
	err := c.getJSON(ctx, "catalog/"+url.PathEscape(id), nil, &rec)
	if err != nil {
		var te *domain.TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
			return domcat.Record{}, fmt.Errorf("catalog record %q: %w", id, domain.ErrNotFound)
		}
		return domcat.Record{}, err
	}
	return rec, nil
}

// HealthCheck calls GET /health and expects a 2xx.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.getJSON(ctx, "health", nil, nil); err != nil {
		return fmt.Errorf("remote health: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	u := c.base.JoinPath(path)
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		c.logger.Warn("remote request failed", zap.String("path", u.Path), zap.Error(err))
		return &domain.TransportError{Message: networkErrorMessage}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return &domain.TransportError{
			Message:    fmt.Sprintf("invalid response body: %v", err),
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

// errorBody is the error envelope of the remote API.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func decodeError(resp *http.Response) *domain.TransportError {
	te := &domain.TransportError{
		Message:    domain.GenericFailureMessage,
		StatusCode: resp.StatusCode,
	}

	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			te.Message = msg
		}
		te.Errors = body.Errors
	}
	return te
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

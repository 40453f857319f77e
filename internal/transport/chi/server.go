package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	domcat "github.com/kailas-cloud/medsearch/internal/domain/catalog"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/medsearch/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/medsearch/internal/usecase/session"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Catalog serves the catalog contract from the configured backend.
type Catalog interface {
	Search(ctx context.Context, query string, filters filter.Set) ([]domcat.Record, error)
	Get(ctx context.Context, id string) (domcat.Record, error)
}

// Recents exposes the shared recents list.
type Recents interface {
	Read(ctx context.Context) []result.Result
	Clear(ctx context.Context)
}

// Server implements ServerInterface.
type Server struct {
	catalog       Catalog
	sessions      *sessionuc.Manager
	recents       Recents
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	catalog Catalog,
	sessions *sessionuc.Manager,
	recents Recents,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog:  catalog,
		sessions: sessions,
		recents:  recents,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, ErrorResponseCodeSessionNotFound),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, ErrorResponseCodeInvalidFilter),
		transportErrorHandler,
		sentinelHandler(domain.ErrInvalidRecord, http.StatusBadGateway, ErrorResponseCodeUpstreamError),
		sentinelHandler(domain.ErrSearchFailed, http.StatusBadGateway, ErrorResponseCodeSearchFailed),
	}
	return s
}

// SearchCatalog handles GET /search.
func (s *Server) SearchCatalog(w http.ResponseWriter, r *http.Request, params SearchCatalogParams) {
	var query string
	if params.Q != nil {
		query = *params.Q
	}

	records, err := s.catalog.Search(r.Context(), query, filtersFromParams(params))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if records == nil {
		records = []domcat.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetCatalogRecord handles GET /catalog/{id}.
func (s *Server) GetCatalogRecord(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListFilters handles GET /filters.
func (s *Server) ListFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FiltersResponse{Items: filter.Catalog()})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sess.View(r.Context()))
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id SessionID) {
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, _ *http.Request, id SessionID) {
	if err := s.sessions.Delete(id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SessionInput handles POST /sessions/{id}/input.
func (s *Server) SessionInput(w http.ResponseWriter, r *http.Request, id SessionID, params WaitParams) {
	var req InputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.Input(req.Text)
	s.writeView(w, r, sess, params)
}

// SessionFocus handles POST /sessions/{id}/focus.
func (s *Server) SessionFocus(w http.ResponseWriter, r *http.Request, id SessionID) {
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.Focus()
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

// SessionBlur handles POST /sessions/{id}/blur.
func (s *Server) SessionBlur(w http.ResponseWriter, r *http.Request, id SessionID) {
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.ClickOutside()
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

// OpenFilters handles POST /sessions/{id}/filters/open.
func (s *Server) OpenFilters(w http.ResponseWriter, r *http.Request, id SessionID) {
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.OpenFilters()
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

// ToggleFilter handles POST /sessions/{id}/filters/toggle.
func (s *Server) ToggleFilter(w http.ResponseWriter, r *http.Request, id SessionID) {
	var req ToggleFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	if err := sess.ToggleFilter(req.Key); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

// ApplyFilters handles POST /sessions/{id}/filters/apply.
func (s *Server) ApplyFilters(w http.ResponseWriter, r *http.Request, id SessionID, params WaitParams) {
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.ApplyFilters()
	s.writeView(w, r, sess, params)
}

// ClearFilters handles POST /sessions/{id}/filters/clear.
func (s *Server) ClearFilters(w http.ResponseWriter, r *http.Request, id SessionID, params WaitParams) {
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.ClearAllFilters()
	s.writeView(w, r, sess, params)
}

// SetCursor handles PUT /sessions/{id}/cursor.
func (s *Server) SetCursor(w http.ResponseWriter, r *http.Request, id SessionID) {
	var req CursorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.SetActiveIndex(r.Context(), req.Index)
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

// SelectResult handles POST /sessions/{id}/select.
func (s *Server) SelectResult(w http.ResponseWriter, r *http.Request, id SessionID) {
	var req SelectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, ok := s.session(w, id)
	if !ok {
		return
	}

	var (
		location string
		err      error
	)
	if req.ID == "" {
		location, err = sess.SelectActive(r.Context())
	} else {
		location, err = sess.SelectByID(r.Context(), req.ID)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusOK, SelectResponse{Location: location})
}

// ClearSession handles POST /sessions/{id}/clear.
func (s *Server) ClearSession(w http.ResponseWriter, r *http.Request, id SessionID) {
	sess, ok := s.session(w, id)
	if !ok {
		return
	}
	sess.Clear()
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

// GetRecents handles GET /recents.
func (s *Server) GetRecents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RecentsResponse{Items: s.recents.Read(r.Context())})
}

// ClearRecents handles DELETE /recents.
func (s *Server) ClearRecents(w http.ResponseWriter, r *http.Request) {
	s.recents.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) session(w http.ResponseWriter, id SessionID) (*sessionuc.Session, bool) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.handleDomainError(w, err)
		return nil, false
	}
	return sess, true
}

// writeView writes the session view, first waiting for the dispatched search
// when the caller asked for it. A wait cut short by the client still answers
// with the current view.
func (s *Server) writeView(w http.ResponseWriter, r *http.Request, sess *sessionuc.Session, params WaitParams) {
	if params.Wait != nil && *params.Wait {
		if err := sess.Wait(r.Context()); err != nil {
			s.logger.Debug("session wait interrupted", zap.String("session_id", sess.ID()), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

func filtersFromParams(p SearchCatalogParams) filter.Set {
	var set filter.Set
	if p.Available != nil && *p.Available {
		set = set.With(filter.Availability)
	}
	if p.MaxDeliveryTime != nil {
		set = set.With(filter.Delivery)
	}
	if p.MaxDistance != nil {
		set = set.With(filter.PharmacyDistance)
	}
	if p.RequiresPrescription != nil && *p.RequiresPrescription {
		set = set.With(filter.Prescription)
	}
	return set
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrSessionNotFound,
		domain.ErrInvalidFilter,
		domain.ErrInvalidRecord,
		domain.ErrSearchFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// transportErrorHandler passes a normalized upstream failure through with its
// field errors.
func transportErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var te *domain.TransportError
	if !errors.As(err, &te) {
		return false
	}
	writeJSON(w, http.StatusBadGateway, ErrorResponse{
		Code:    ErrorResponseCodeUpstreamError,
		Message: te.Message,
		Errors:  te.Errors,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

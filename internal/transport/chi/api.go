package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/transport/remote"
	sessionuc "github.com/kailas-cloud/medsearch/internal/usecase/session"
)

// ErrorResponseCode is the machine-readable code of an ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
	ErrorResponseCodeSessionNotFound  ErrorResponseCode = "session_not_found"
	ErrorResponseCodeInvalidFilter    ErrorResponseCode = "invalid_filter"
	ErrorResponseCodeUpstreamError    ErrorResponseCode = "upstream_error"
	ErrorResponseCodeSearchFailed     ErrorResponseCode = "search_failed"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode   `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// SearchCatalogParams are the query parameters of GET /search.
// A present limit or a true flag enables the matching filter.
type SearchCatalogParams struct {
	Q                    *string  `form:"q,omitempty" json:"q,omitempty"`
	Available            *bool    `form:"available,omitempty" json:"available,omitempty"`
	MaxDeliveryTime      *float64 `form:"maxDeliveryTime,omitempty" json:"maxDeliveryTime,omitempty"`
	MaxDistance          *float64 `form:"maxDistance,omitempty" json:"maxDistance,omitempty"`
	RequiresPrescription *bool    `form:"requiresPrescription,omitempty" json:"requiresPrescription,omitempty"`
}

// WaitParams are accepted by session operations that dispatch a search.
// With wait=true the response is written after the search settles.
type WaitParams struct {
	Wait *bool `form:"wait,omitempty" json:"wait,omitempty"`
}

// SessionID is the {id} path parameter of session routes.
type SessionID = string

// InputRequest is the body of POST /sessions/{id}/input.
type InputRequest struct {
	Text string `json:"text"`
}

// ToggleFilterRequest is the body of POST /sessions/{id}/filters/toggle.
type ToggleFilterRequest struct {
	Key filter.Key `json:"key"`
}

// CursorRequest is the body of PUT /sessions/{id}/cursor.
type CursorRequest struct {
	Index int `json:"index"`
}

// SelectRequest is the body of POST /sessions/{id}/select. An empty ID
// selects the item under the cursor.
type SelectRequest struct {
	ID string `json:"id"`
}

// SelectResponse carries the route of the selected result.
type SelectResponse struct {
	Location string `json:"location"`
}

// FiltersResponse lists the filter catalog.
type FiltersResponse struct {
	Items []filter.Descriptor `json:"items"`
}

// RecentsResponse lists recently selected results.
type RecentsResponse struct {
	Items []result.Result `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SessionResponse is a session snapshot.
type SessionResponse = sessionuc.View

// ServerInterface lists every HTTP operation.
type ServerInterface interface {
	// (GET /search)
	SearchCatalog(w http.ResponseWriter, r *http.Request, params SearchCatalogParams)
	// (GET /catalog/{id})
	GetCatalogRecord(w http.ResponseWriter, r *http.Request, id string)
	// (GET /filters)
	ListFilters(w http.ResponseWriter, r *http.Request)
	// (POST /sessions)
	CreateSession(w http.ResponseWriter, r *http.Request)
	// (GET /sessions/{id})
	GetSession(w http.ResponseWriter, r *http.Request, id SessionID)
	// (DELETE /sessions/{id})
	DeleteSession(w http.ResponseWriter, r *http.Request, id SessionID)
	// (POST /sessions/{id}/input)
	SessionInput(w http.ResponseWriter, r *http.Request, id SessionID, params WaitParams)
	// (POST /sessions/{id}/focus)
	SessionFocus(w http.ResponseWriter, r *http.Request, id SessionID)
	// (POST /sessions/{id}/blur)
	SessionBlur(w http.ResponseWriter, r *http.Request, id SessionID)
	// (POST /sessions/{id}/filters/open)
	OpenFilters(w http.ResponseWriter, r *http.Request, id SessionID)
	// (POST /sessions/{id}/filters/toggle)
	ToggleFilter(w http.ResponseWriter, r *http.Request, id SessionID)
	// (POST /sessions/{id}/filters/apply)
	ApplyFilters(w http.ResponseWriter, r *http.Request, id SessionID, params WaitParams)
	// (POST /sessions/{id}/filters/clear)
	ClearFilters(w http.ResponseWriter, r *http.Request, id SessionID, params WaitParams)
	// (PUT /sessions/{id}/cursor)
	SetCursor(w http.ResponseWriter, r *http.Request, id SessionID)
	// (POST /sessions/{id}/select)
	SelectResult(w http.ResponseWriter, r *http.Request, id SessionID)
	// (POST /sessions/{id}/clear)
	ClearSession(w http.ResponseWriter, r *http.Request, id SessionID)
	// (GET /recents)
	GetRecents(w http.ResponseWriter, r *http.Request)
	// (DELETE /recents)
	ClearRecents(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts si on a new chi router.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts si on options.BaseRouter, binding path and query
// parameters before each operation runs.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wrapper := serverInterfaceWrapper{
		handler:            si,
		handlerMiddlewares: options.Middlewares,
		errorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Get("/search", wrapper.SearchCatalog)
	r.Get("/catalog/{id}", wrapper.GetCatalogRecord)
	r.Get("/filters", wrapper.ListFilters)
	r.Post("/sessions", wrapper.CreateSession)
	r.Get("/sessions/{id}", wrapper.GetSession)
	r.Delete("/sessions/{id}", wrapper.DeleteSession)
	r.Post("/sessions/{id}/input", wrapper.SessionInput)
	r.Post("/sessions/{id}/focus", wrapper.SessionFocus)
	r.Post("/sessions/{id}/blur", wrapper.SessionBlur)
	r.Post("/sessions/{id}/filters/open", wrapper.OpenFilters)
	r.Post("/sessions/{id}/filters/toggle", wrapper.ToggleFilter)
	r.Post("/sessions/{id}/filters/apply", wrapper.ApplyFilters)
	r.Post("/sessions/{id}/filters/clear", wrapper.ClearFilters)
	r.Put("/sessions/{id}/cursor", wrapper.SetCursor)
	r.Post("/sessions/{id}/select", wrapper.SelectResult)
	r.Post("/sessions/{id}/clear", wrapper.ClearSession)
	r.Get("/recents", wrapper.GetRecents)
	r.Delete("/recents", wrapper.ClearRecents)
	r.Get("/health", wrapper.HealthCheck)
	r.Get("/metrics", wrapper.Metrics)
	return r
}

type serverInterfaceWrapper struct {
	handler            ServerInterface
	handlerMiddlewares []func(http.Handler) http.Handler
	errorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (w *serverInterfaceWrapper) serve(rw http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, m := range w.handlerMiddlewares {
		handler = m(handler)
	}
	handler.ServeHTTP(rw, r)
}

// pathID binds the {id} path parameter.
func (w *serverInterfaceWrapper) pathID(rw http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		w.errorHandlerFunc(rw, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

// waitParams binds the optional wait query parameter.
func (w *serverInterfaceWrapper) waitParams(rw http.ResponseWriter, r *http.Request) (WaitParams, bool) {
	var params WaitParams
	if err := runtime.BindQueryParameter("form", true, false, "wait", r.URL.Query(), &params.Wait); err != nil {
		w.errorHandlerFunc(rw, r, &InvalidParamFormatError{ParamName: "wait", Err: err})
		return params, false
	}
	return params, true
}

// SearchCatalog binds the /search query parameters.
func (w *serverInterfaceWrapper) SearchCatalog(rw http.ResponseWriter, r *http.Request) {
	var params SearchCatalogParams
	query := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{remote.ParamQuery, &params.Q},
		{remote.ParamAvailable, &params.Available},
		{remote.ParamMaxDeliveryTime, &params.MaxDeliveryTime},
		{remote.ParamMaxDistance, &params.MaxDistance},
		{remote.ParamRequiresPrescription, &params.RequiresPrescription},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			w.errorHandlerFunc(rw, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	w.serve(rw, r, func(rw http.ResponseWriter, r *http.Request) {
		w.handler.SearchCatalog(rw, r, params)
	})
}

// GetCatalogRecord binds the record id.
func (w *serverInterfaceWrapper) GetCatalogRecord(rw http.ResponseWriter, r *http.Request) {
	id, ok := w.pathID(rw, r)
	if !ok {
		return
	}
	w.serve(rw, r, func(rw http.ResponseWriter, r *http.Request) {
		w.handler.GetCatalogRecord(rw, r, id)
	})
}

func (w *serverInterfaceWrapper) ListFilters(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.ListFilters)
}

func (w *serverInterfaceWrapper) CreateSession(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.CreateSession)
}

// withID adapts an operation taking the session id.
func (w *serverInterfaceWrapper) withID(op func(http.ResponseWriter, *http.Request, SessionID)) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		id, ok := w.pathID(rw, r)
		if !ok {
			return
		}
		w.serve(rw, r, func(rw http.ResponseWriter, r *http.Request) {
			op(rw, r, id)
		})
	}
}

// withIDAndWait adapts an operation taking the session id and WaitParams.
func (w *serverInterfaceWrapper) withIDAndWait(
	op func(http.ResponseWriter, *http.Request, SessionID, WaitParams),
) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		id, ok := w.pathID(rw, r)
		if !ok {
			return
		}
		params, ok := w.waitParams(rw, r)
		if !ok {
			return
		}
		w.serve(rw, r, func(rw http.ResponseWriter, r *http.Request) {
			op(rw, r, id, params)
		})
	}
}

func (w *serverInterfaceWrapper) GetSession(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.GetSession)(rw, r)
}

func (w *serverInterfaceWrapper) DeleteSession(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.DeleteSession)(rw, r)
}

func (w *serverInterfaceWrapper) SessionInput(rw http.ResponseWriter, r *http.Request) {
	w.withIDAndWait(w.handler.SessionInput)(rw, r)
}

func (w *serverInterfaceWrapper) SessionFocus(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.SessionFocus)(rw, r)
}

func (w *serverInterfaceWrapper) SessionBlur(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.SessionBlur)(rw, r)
}

func (w *serverInterfaceWrapper) OpenFilters(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.OpenFilters)(rw, r)
}

func (w *serverInterfaceWrapper) ToggleFilter(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.ToggleFilter)(rw, r)
}

func (w *serverInterfaceWrapper) ApplyFilters(rw http.ResponseWriter, r *http.Request) {
	w.withIDAndWait(w.handler.ApplyFilters)(rw, r)
}

func (w *serverInterfaceWrapper) ClearFilters(rw http.ResponseWriter, r *http.Request) {
	w.withIDAndWait(w.handler.ClearFilters)(rw, r)
}

func (w *serverInterfaceWrapper) SetCursor(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.SetCursor)(rw, r)
}

func (w *serverInterfaceWrapper) SelectResult(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.SelectResult)(rw, r)
}

func (w *serverInterfaceWrapper) ClearSession(rw http.ResponseWriter, r *http.Request) {
	w.withID(w.handler.ClearSession)(rw, r)
}

func (w *serverInterfaceWrapper) GetRecents(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.GetRecents)
}

func (w *serverInterfaceWrapper) ClearRecents(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.ClearRecents)
}

func (w *serverInterfaceWrapper) HealthCheck(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.HealthCheck)
}

func (w *serverInterfaceWrapper) Metrics(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.Metrics)
}

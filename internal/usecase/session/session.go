package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/usecase/compose"
)

// State is the derived interaction state of a session.
type State string

const (
	// StateIdle: empty query. The dropdown may be open to show recents.
	StateIdle State = "idle"
	// StateTyping: non-empty query with the dropdown open.
	StateTyping State = "typing"
	// StateFiltering: the filter panel is shown.
	StateFiltering State = "filtering"
	// StateSelected: a result was just selected. Lasts until the next event.
	StateSelected State = "selected"
)

// MedicinePath is the detail route of a selected result.
func MedicinePath(id string) string {
	return "/medicine/" + url.PathEscape(id)
}

// View is an immutable snapshot of a session.
type View struct {
	ID             string          `json:"id"`
	State          State           `json:"state"`
	Query          string          `json:"query"`
	Open           bool            `json:"open"`
	Loading        bool            `json:"loading"`
	Error          string          `json:"error,omitempty"`
	FiltersOpen    bool            `json:"filtersOpen"`
	ActiveFilters  filter.Set      `json:"activeFilters"`
	AppliedFilters filter.Set      `json:"appliedFilters"`
	ActiveIndex    int             `json:"activeIndex"`
	Results        []result.Result `json:"results"`
	Medicines      []result.Result `json:"medicines"`
	Pharmacies     []result.Result `json:"pharmacies"`
	Recents        []result.Result `json:"recents"`
}

// Session is one client's search box: query, dropdown, filter panel, cursor
// and the results of the latest search. Safe for concurrent use.
type Session struct {
	id       string
	searcher Searcher
	composer Composer
	recents  Recents
	nav      Navigator
	logger   *zap.Logger
	now      func() time.Time

	ctx  context.Context
	stop context.CancelFunc

	mu          sync.Mutex
	query       string
	open        bool
	panel       compose.Panel
	activeIndex int
	loading     bool
	errMsg      string
	results     []result.Result
	medicines   []result.Result
	pharmacies  []result.Result
	selected    bool
	gen         uint64
	inflight    chan struct{}
	lastSeen    time.Time
}

func newSession(
	parent context.Context, id string,
	searcher Searcher, composer Composer, recents Recents, nav Navigator,
	logger *zap.Logger, now func() time.Time,
) *Session {
	ctx, stop := context.WithCancel(parent)
	return &Session{
		id:          id,
		searcher:    searcher,
		composer:    composer,
		recents:     recents,
		nav:         nav,
		logger:      logger.With(zap.String("session_id", id)),
		now:         now,
		ctx:         ctx,
		stop:        stop,
		activeIndex: -1,
		lastSeen:    now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Input sets the query text. A non-empty query opens the dropdown and
// dispatches a debounced search; an empty one clears results at once.
func (s *Session) Input(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()

	s.query = text
	s.activeIndex = -1
	if text != "" {
		s.open = true
	}
	s.dispatchLocked()
}

// Focus opens the dropdown, whether or not the query is empty.
func (s *Session) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()
	s.open = true
}

// ClickOutside closes the dropdown and keeps the query.
func (s *Session) ClickOutside() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()
	s.open = false
	s.activeIndex = -1
}

// OpenFilters toggles the filter panel.
func (s *Session) OpenFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()
	s.panel.Open()
}

// ToggleFilter flips key in the filter set being edited.
func (s *Session) ToggleFilter(k filter.Key) error {
	if !k.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidFilter, k)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()
	s.panel.Toggle(k)
	return nil
}

// ApplyFilters commits the edited set and re-runs the current query with it.
func (s *Session) ApplyFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()
	s.panel.Apply()
	s.activeIndex = -1
	s.dispatchLocked()
}

// ClearAllFilters empties both filter sets and re-runs the current query.
func (s *Session) ClearAllFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()
	s.panel.ClearAll()
	s.activeIndex = -1
	s.dispatchLocked()
}

// SetActiveIndex moves the cursor, clamped to -1..len(visible)-1, and
// returns the resulting index.
func (s *Session) SetActiveIndex(ctx context.Context, i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()

	n := len(s.visibleLocked(ctx))
	switch {
	case i < -1:
		i = -1
	case i >= n:
		i = n - 1
	}
	s.activeIndex = i
	return i
}

// Select records item into recents, sets the query to its title, closes the
// dropdown and the filter panel, resets the cursor, drops any pending search
// and hands the detail route to the navigator. It returns that route.
func (s *Session) Select(ctx context.Context, item result.Result) (string, error) {
	s.recents.Record(ctx, item)

	s.mu.Lock()
	s.eventLocked()
	s.query = item.Title
	s.open = false
	s.panel.Close()
	s.activeIndex = -1
	s.gen++
	s.searcher.Cancel()
	s.loading = false
	s.selected = true
	s.mu.Unlock()

	path := MedicinePath(item.ID)
	if err := s.nav.Navigate(ctx, path); err != nil {
		return path, fmt.Errorf("navigate to %s: %w", path, err)
	}
	s.logger.Debug("result selected", zap.String("result_id", item.ID), zap.String("path", path))
	return path, nil
}

// SelectByID selects a visible result or a recent by id.
func (s *Session) SelectByID(ctx context.Context, id string) (string, error) {
	item, ok := s.find(ctx, id)
	if !ok {
		return "", fmt.Errorf("result %q: %w", id, domain.ErrNotFound)
	}
	return s.Select(ctx, item)
}

// SelectActive selects the item under the cursor.
func (s *Session) SelectActive(ctx context.Context) (string, error) {
	s.mu.Lock()
	visible := s.visibleLocked(ctx)
	idx := s.activeIndex
	s.mu.Unlock()

	if idx < 0 || idx >= len(visible) {
		return "", fmt.Errorf("no active result: %w", domain.ErrNotFound)
	}
	return s.Select(ctx, visible[idx])
}

// Clear resets the session to its initial values.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLocked()

	s.gen++
	s.searcher.Cancel()
	s.query = ""
	s.open = false
	s.panel = compose.Panel{}
	s.activeIndex = -1
	s.loading = false
	s.errMsg = ""
	s.setResultsLocked(nil)
}

// View returns a snapshot. Recents are included while the query is empty.
func (s *Session) View(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()

	v := View{
		ID:             s.id,
		State:          s.stateLocked(),
		Query:          s.query,
		Open:           s.open,
		Loading:        s.loading,
		Error:          s.errMsg,
		FiltersOpen:    s.panel.IsOpen(),
		ActiveFilters:  s.panel.Active(),
		AppliedFilters: s.panel.Applied(),
		ActiveIndex:    s.activeIndex,
		Results:        cloneResults(s.results),
		Medicines:      cloneResults(s.visibleMedicinesLocked()),
		Pharmacies:     cloneResults(s.visiblePharmaciesLocked()),
		Recents:        []result.Result{},
	}
	if s.query == "" {
		v.Recents = s.recents.Read(ctx)
	}
	return v
}

// Wait blocks until the latest dispatched search settles or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.inflight
	s.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close aborts any pending search. The session must not be used afterwards.
func (s *Session) Close() {
	s.stop()
	s.searcher.Cancel()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// eventLocked marks user activity and ends the selected state.
func (s *Session) eventLocked() {
	s.selected = false
	s.lastSeen = s.now()
}

func (s *Session) stateLocked() State {
	switch {
	case s.selected:
		return StateSelected
	case s.panel.IsOpen():
		return StateFiltering
	case s.query != "" && s.open:
		return StateTyping
	default:
		return StateIdle
	}
}

// dispatchLocked starts a search for the current query and applied set.
// Only the dispatch holding the latest generation may write results.
func (s *Session) dispatchLocked() {
	s.gen++
	gen := s.gen

	if s.query == "" {
		s.searcher.Cancel()
		s.loading = false
		s.errMsg = ""
		s.setResultsLocked(nil)
		return
	}

	s.loading = true
	s.errMsg = ""
	call := s.searcher.Schedule(s.ctx, s.query, s.panel.Applied())
	done := make(chan struct{})
	s.inflight = done

	go s.settle(gen, call, done)
}

func (s *Session) settle(gen uint64, call func() ([]result.Result, error), done chan struct{}) {
	defer close(done)
	res, err := call()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.loading = false

	switch {
	case errors.Is(err, domain.ErrSearchAborted):
	case err != nil:
		s.logger.Warn("search failed", zap.String("query", s.query), zap.Error(err))
		s.errMsg = domain.GenericFailureMessage
		s.setResultsLocked(nil)
	default:
		s.setResultsLocked(res)
	}
}

func (s *Session) setResultsLocked(res []result.Result) {
	s.results = res
	s.medicines, s.pharmacies = result.Split(res)
}

// visibleMedicinesLocked composes medicines with the applied set. The split
// slices are kept per result set so the composer memo can hit.
func (s *Session) visibleMedicinesLocked() []result.Result {
	return s.composer.Apply(s.medicines, s.panel.Applied())
}

// visiblePharmaciesLocked hides pharmacies while filters are applied.
func (s *Session) visiblePharmaciesLocked() []result.Result {
	if !s.panel.Applied().IsEmpty() {
		return nil
	}
	return s.pharmacies
}

// visibleLocked lists what the cursor moves over: recents for an empty
// query, otherwise medicines then pharmacies.
func (s *Session) visibleLocked(ctx context.Context) []result.Result {
	if s.query == "" {
		return s.recents.Read(ctx)
	}
	meds := s.visibleMedicinesLocked()
	phs := s.visiblePharmaciesLocked()
	out := make([]result.Result, 0, len(meds)+len(phs))
	out = append(out, meds...)
	return append(out, phs...)
}

// find resolves id among the items the user can see: the composed results
// (pharmacies are hidden while filters apply), then recents.
func (s *Session) find(ctx context.Context, id string) (result.Result, bool) {
	s.mu.Lock()
	visible := s.visibleLocked(ctx)
	s.mu.Unlock()

	for _, r := range visible {
		if r.ID == id {
			return r, true
		}
	}
	for _, r := range s.recents.Read(ctx) {
		if r.ID == id {
			return r, true
		}
	}
	return result.Result{}, false
}

func cloneResults(in []result.Result) []result.Result {
	out := make([]result.Result, len(in))
	copy(out, in)
	return out
}

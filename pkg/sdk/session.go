package medsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	sessionuc "github.com/kailas-cloud/medsearch/internal/usecase/session"
)

// Session is one interactive search box. Input is debounced and only the
// latest query may update results. Safe for concurrent use.
type Session struct {
	s       *sessionuc.Session
	release func() error
	obs     *observer
}

// NewSession starts a session. Close it when done.
func (c *Client) NewSession() *Session {
	s := c.sessions.Create()
	return &Session{
		s:       s,
		release: func() error { return c.sessions.Delete(s.ID()) },
		obs:     c.obs,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.s.ID() }

// Input sets the query and schedules a search.
func (s *Session) Input(text string) { s.s.Input(text) }

// Focus opens the dropdown.
func (s *Session) Focus() { s.s.Focus() }

// Blur closes the dropdown and keeps the query.
func (s *Session) Blur() { s.s.ClickOutside() }

// OpenFilters toggles the filter panel.
func (s *Session) OpenFilters() { s.s.OpenFilters() }

// ToggleFilter flips a filter in the panel.
func (s *Session) ToggleFilter(k FilterKey) error {
	if err := s.s.ToggleFilter(filter.Key(k)); err != nil {
		return fmt.Errorf("toggle filter: %w", err)
	}
	return nil
}

// ApplyFilters commits the panel and re-runs the query.
func (s *Session) ApplyFilters() { s.s.ApplyFilters() }

// ClearFilters drops every filter and re-runs the query.
func (s *Session) ClearFilters() { s.s.ClearAllFilters() }

// SetActiveIndex moves the keyboard cursor and returns the clamped index.
func (s *Session) SetActiveIndex(ctx context.Context, i int) int {
	return s.s.SetActiveIndex(ctx, i)
}

// Select picks a result or recent by id and returns its detail route.
func (s *Session) Select(ctx context.Context, id string) (_ string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.select", start, err) }()

	loc, err := s.s.SelectByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("select %q: %w", id, err)
	}
	return loc, nil
}

// SelectActive picks the item under the cursor.
func (s *Session) SelectActive(ctx context.Context) (_ string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("session.select", start, err) }()

	loc, err := s.s.SelectActive(ctx)
	if err != nil {
		return "", fmt.Errorf("select active: %w", err)
	}
	return loc, nil
}

// Clear resets the session.
func (s *Session) Clear() { s.s.Clear() }

// Wait blocks until the latest search settles or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	if err := s.s.Wait(ctx); err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	return nil
}

// View returns a snapshot of the session.
func (s *Session) View(ctx context.Context) SessionView {
	return viewFromDomain(s.s.View(ctx))
}

// Close aborts any pending search and releases the session.
func (s *Session) Close() error {
	if err := s.release(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

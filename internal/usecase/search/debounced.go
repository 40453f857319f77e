package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
	"github.com/kailas-cloud/medsearch/internal/metrics"
)

// DefaultDebounce is the quiet period before a query is sent.
const DefaultDebounce = 400 * time.Millisecond

var (
	errSuperseded = errors.New("superseded by a newer search")
	errCancelled  = errors.New("search cancelled")
)

// Debounced serializes one client's searches: every call supersedes the
// previous one, and only the latest call may return results.
type Debounced struct {
	engine Searcher
	delay  time.Duration

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
}

// NewDebounced wraps engine. A non-positive delay uses DefaultDebounce.
func NewDebounced(engine Searcher, delay time.Duration) *Debounced {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debounced{engine: engine, delay: delay}
}

// Search is Schedule followed by running the returned call.
func (d *Debounced) Search(ctx context.Context, query string, filters filter.Set) ([]result.Result, error) {
	return d.Schedule(ctx, query, filters)()
}

// Schedule supersedes any earlier search and returns the call that waits out
// the delay and runs the query. Supersession happens in Schedule itself, so
// callers that dispatch the returned call on a goroutine keep issue order.
//
// An empty query resolves to an empty result at once. A call superseded by a
// later Schedule or Cancel returns an error wrapping domain.ErrSearchAborted.
func (d *Debounced) Schedule(
	ctx context.Context, query string, filters filter.Set,
) func() ([]result.Result, error) {
	if query == "" {
		d.Cancel()
		return func() ([]result.Result, error) { return []result.Result{}, nil }
	}

	ctx, gen := d.begin(ctx)
	return func() ([]result.Result, error) {
		defer d.finish(gen)

		t := time.NewTimer(d.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, d.aborted(ctx)
		case <-t.C:
		}

		res, err := d.engine.Search(ctx, query, filters)
		if !d.current(gen) {
			return nil, d.aborted(ctx)
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

// Cancel aborts the pending or in-flight search, if any.
func (d *Debounced) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.cancel != nil {
		d.cancel(errCancelled)
		d.cancel = nil
	}
}

func (d *Debounced) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancelCause(parent)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel(errSuperseded)
	}
	d.seq++
	d.cancel = cancel
	return ctx, d.seq
}

// finish releases the context of the latest call once it completes.
func (d *Debounced) finish(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seq == gen && d.cancel != nil {
		d.cancel(nil)
		d.cancel = nil
	}
}

func (d *Debounced) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq == gen
}

func (d *Debounced) aborted(ctx context.Context) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, errSuperseded) {
		metrics.SearchDebounceSupersededTotal.Inc()
	}
	if cause == nil {
		cause = errSuperseded
	}
	return fmt.Errorf("%w: %w", domain.ErrSearchAborted, cause)
}

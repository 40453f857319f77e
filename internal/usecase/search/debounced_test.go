package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/medsearch/internal/domain/search/result"
)

const testDelay = 20 * time.Millisecond

type outcome struct {
	res []result.Result
	err error
}

func run(call func() ([]result.Result, error)) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		res, err := call()
		ch <- outcome{res: res, err: err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("search did not complete")
		return outcome{}
	}
}

func TestNewDebounced_DefaultDelay(t *testing.T) {
	d := NewDebounced(&mockSearcher{}, 0)
	if d.delay != DefaultDebounce {
		t.Errorf("delay = %v, want %v", d.delay, DefaultDebounce)
	}
}

func TestDebounced_EmptyQueryResolvesImmediately(t *testing.T) {
	engine := &mockSearcher{}
	d := NewDebounced(engine, time.Hour)

	res, err := d.Search(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || len(res) != 0 {
		t.Errorf("expected empty result, got %v", res)
	}
	if len(engine.queries()) != 0 {
		t.Errorf("engine must not be called, got %v", engine.queries())
	}
}

func TestDebounced_WaitsForDelay(t *testing.T) {
	engine := &mockSearcher{}
	d := NewDebounced(engine, testDelay)

	start := time.Now()
	res, err := d.Search(context.Background(), "pan", filter.NewSet(filter.Delivery))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < testDelay {
		t.Errorf("returned before the debounce delay: %v", elapsed)
	}
	if len(res) != 1 || res[0].ID != "pan" {
		t.Errorf("unexpected results: %+v", res)
	}
}

func TestDebounced_SupersededBeforeDispatch(t *testing.T) {
	engine := &mockSearcher{}
	d := NewDebounced(engine, testDelay)
	ctx := context.Background()

	first := run(d.Schedule(ctx, "pa", 0))
	second := run(d.Schedule(ctx, "pan", 0))

	o1 := await(t, first)
	if !errors.Is(o1.err, domain.ErrSearchAborted) {
		t.Errorf("first search: expected ErrSearchAborted, got %v", o1.err)
	}
	if o1.res != nil {
		t.Errorf("superseded search must not return results")
	}

	o2 := await(t, second)
	if o2.err != nil || len(o2.res) != 1 || o2.res[0].ID != "pan" {
		t.Errorf("second search: %+v", o2)
	}

	if q := engine.queries(); len(q) != 1 || q[0] != "pan" {
		t.Errorf("only the latest query may reach the engine, got %v", q)
	}
}

func TestDebounced_StaleResultDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	engine := &mockSearcher{
		searchFn: func(_ context.Context, q string, _ filter.Set) ([]result.Result, error) {
			if q == "slow" {
				close(started)
				<-release
			}
			return []result.Result{{ID: q}}, nil
		},
	}
	d := NewDebounced(engine, time.Millisecond)
	ctx := context.Background()

	slow := run(d.Schedule(ctx, "slow", 0))
	<-started

	fast := run(d.Schedule(ctx, "fast", 0))
	o2 := await(t, fast)
	if o2.err != nil || o2.res[0].ID != "fast" {
		t.Fatalf("fast search: %+v", o2)
	}

	close(release)
	o1 := await(t, slow)
	if !errors.Is(o1.err, domain.ErrSearchAborted) {
		t.Errorf("stale search: expected ErrSearchAborted, got %v", o1.err)
	}
	if o1.res != nil {
		t.Error("stale search must not return results")
	}
}

func TestDebounced_Cancel(t *testing.T) {
	engine := &mockSearcher{}
	d := NewDebounced(engine, time.Hour)

	ch := run(d.Schedule(context.Background(), "pan", 0))
	before := generation(d)
	d.Cancel()
	if generation(d) == before {
		t.Error("Cancel must advance the generation")
	}

	o := await(t, ch)
	if !errors.Is(o.err, domain.ErrSearchAborted) {
		t.Errorf("expected ErrSearchAborted, got %v", o.err)
	}
	if len(engine.queries()) != 0 {
		t.Errorf("cancelled search must not reach the engine, got %v", engine.queries())
	}
}

func TestDebounced_EmptyQueryCancelsPending(t *testing.T) {
	d := NewDebounced(&mockSearcher{}, time.Hour)
	ch := run(d.Schedule(context.Background(), "pan", 0))

	if _, err := d.Search(context.Background(), "", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o := await(t, ch); !errors.Is(o.err, domain.ErrSearchAborted) {
		t.Errorf("expected ErrSearchAborted, got %v", o.err)
	}
}

func TestDebounced_CallerCancellation(t *testing.T) {
	d := NewDebounced(&mockSearcher{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	ch := run(d.Schedule(ctx, "pan", 0))
	cancel()

	o := await(t, ch)
	if !errors.Is(o.err, domain.ErrSearchAborted) {
		t.Errorf("expected ErrSearchAborted, got %v", o.err)
	}
}

func TestDebounced_EngineFailurePassesThrough(t *testing.T) {
	engine := &mockSearcher{
		searchFn: func(context.Context, string, filter.Set) ([]result.Result, error) {
			return nil, domain.ErrSearchFailed
		},
	}
	d := NewDebounced(engine, time.Millisecond)

	if _, err := d.Search(context.Background(), "pan", 0); !errors.Is(err, domain.ErrSearchFailed) {
		t.Errorf("expected ErrSearchFailed, got %v", err)
	}
}

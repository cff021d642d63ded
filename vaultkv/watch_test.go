package vaultkv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/podlab/secretsbp.go/errorsbp"
	"github.com/podlab/secretsbp.go/log"
	"github.com/podlab/secretsbp.go/prometheusbp"
	"github.com/podlab/secretsbp.go/prometheusbp/promtest"
)

type step struct {
	version int
	err     error
}

// scriptedReader returns the steps in order, then cancels the watch.
type scriptedReader struct {
	mu     sync.Mutex
	steps  map[string][]step
	cancel context.CancelFunc
	calls  int
}

func (r *scriptedReader) ReadVersion(ctx context.Context, path, mount string) (SecretVersion, error) {
	s, ok := r.next(path)
	if !ok {
		<-ctx.Done()
		return SecretVersion{}, ctx.Err()
	}
	if s.err != nil {
		return SecretVersion{}, s.err
	}
	return SecretVersion{Path: path, Version: s.version}, nil
}

func (r *scriptedReader) next(path string) (step, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if len(r.steps[path]) == 0 {
		delete(r.steps, path)
		if len(r.steps) == 0 {
			r.cancel()
		}
		return step{}, false
	}
	s := r.steps[path][0]
	r.steps[path] = r.steps[path][1:]
	return s, true
}

func runWatch(t *testing.T, steps []step) ([]ChangeEvent, *scriptedReader, func() []string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	src := &scriptedReader{
		steps:  map[string][]step{"myapp/database": steps},
		cancel: cancel,
	}
	logger, logs := log.TestWrapper(t)

	var events []ChangeEvent
	err := Watch(ctx, src, WatchConfig{
		Path:     "/myapp/database/",
		Interval: time.Millisecond,
		OnChange: func(ev ChangeEvent) {
			events = append(events, ev)
		},
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatal("Watch did not finish the script in time")
	}
	messages := func() []string {
		var msgs []string
		for _, e := range logs.All() {
			msgs = append(msgs, e.Message)
		}
		return msgs
	}
	return events, src, messages
}

func TestWatchChange(t *testing.T) {
	changes := promtest.NewPrometheusMetricTest(t, "watch_changes_total", watchChangesCounter)
	okTicks := promtest.NewPrometheusMetricTest(t, "watch_ticks_total", watchTicksCounter, prometheusbp.ResultOK)

	events, _, messages := runWatch(t, []step{{version: 1}, {version: 1}, {version: 2}})

	want := []ChangeEvent{{Path: "myapp/database", Previous: 1, Current: 2}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("Change events mismatch (-want +got):\n%s", diff)
	}
	wantMsgs := []string{MsgWatchStarted, MsgInitialVersion, MsgVersionChanged}
	if diff := cmp.Diff(wantMsgs, messages()); diff != "" {
		t.Errorf("Signals mismatch (-want +got):\n%s", diff)
	}
	changes.CheckDelta(1)
	okTicks.CheckDelta(3)
}

func TestWatchTickFailure(t *testing.T) {
	errorTicks := promtest.NewPrometheusMetricTest(t, "watch_ticks_total", watchTicksCounter, prometheusbp.ResultError)

	events, src, messages := runWatch(t, []step{
		{version: 3},
		{err: &StoreError{Op: opRead, Path: "myapp/database", Err: errors.New("connection refused")}},
		{version: 3},
		{version: 4},
	})

	want := []ChangeEvent{{Path: "myapp/database", Previous: 3, Current: 4}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("Change events mismatch (-want +got):\n%s", diff)
	}
	wantMsgs := []string{MsgWatchStarted, MsgInitialVersion, MsgTickFailed, MsgVersionChanged}
	if diff := cmp.Diff(wantMsgs, messages()); diff != "" {
		t.Errorf("Signals mismatch (-want +got):\n%s", diff)
	}
	errorTicks.CheckDelta(1)
	// 4 scripted reads and the one interrupted by cancel.
	if src.calls != 5 {
		t.Errorf("Expected 5 reads, got %d", src.calls)
	}
}

func TestWatchFailureBeforeBaseline(t *testing.T) {
	events, _, messages := runWatch(t, []step{
		{err: ErrSecretNotFound},
		{version: 7},
		{version: 7},
	})
	if len(events) != 0 {
		t.Errorf("Expected no change events, got %+v", events)
	}
	wantMsgs := []string{MsgWatchStarted, MsgTickFailed, MsgInitialVersion}
	if diff := cmp.Diff(wantMsgs, messages()); diff != "" {
		t.Errorf("Signals mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedReader{
		steps:  map[string][]step{"p": {{version: 1}}},
		cancel: cancel,
	}
	logger, logs := log.TestWrapper(t)

	if err := Watch(ctx, src, WatchConfig{Path: "p", Logger: logger}); err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
	if src.calls != 0 {
		t.Errorf("Expected no reads after cancel, got %d", src.calls)
	}
	if n := logs.FilterMessage(MsgTickFailed).Len(); n != 0 {
		t.Errorf("Expected no tick failures, got %d", n)
	}
}

func TestWatchInvalidConfig(t *testing.T) {
	for _, path := range []string{"", "/", "//"} {
		if err := Watch(context.Background(), &scriptedReader{}, WatchConfig{Path: path}); err == nil {
			t.Errorf("Expected error for path %q", path)
		}
	}
}

func TestWatchAll(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	src := &scriptedReader{
		steps: map[string][]step{
			"myapp/database": {{version: 1}, {version: 2}},
			"myapp/api":      {{version: 5}, {version: 5}, {version: 6}},
		},
		cancel: cancel,
	}

	var mu sync.Mutex
	got := make(map[string][]ChangeEvent)
	onChange := func(ev ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		got[ev.Path] = append(got[ev.Path], ev)
	}

	err := WatchAll(ctx, src, []WatchConfig{
		{Path: "myapp/database", Interval: time.Millisecond, OnChange: onChange},
		{Path: "myapp/api", Interval: time.Millisecond, OnChange: onChange},
	})
	if err != nil {
		t.Fatalf("WatchAll returned error: %v", err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatal("WatchAll did not finish the script in time")
	}

	want := map[string][]ChangeEvent{
		"myapp/database": {{Path: "myapp/database", Previous: 1, Current: 2}},
		"myapp/api":      {{Path: "myapp/api", Previous: 5, Current: 6}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Change events mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchAllInvalid(t *testing.T) {
	src := &scriptedReader{}
	err := WatchAll(context.Background(), src, []WatchConfig{
		{Path: ""},
		{Path: "ok"},
		{Path: "/"},
	})
	if got := errorsbp.BatchSize(err); got != 2 {
		t.Errorf("Expected 2 errors, got %d: %v", got, err)
	}
	if src.calls != 0 {
		t.Errorf("Expected no reads, got %d", src.calls)
	}
}

func TestMetricNames(t *testing.T) {
	// Vectors are only gathered once they have a child.
	requestsCounter.WithLabelValues(opRead, prometheusbp.ResultOK)
	requestLatency.WithLabelValues(opRead, prometheusbp.ResultOK)
	watchTicksCounter.WithLabelValues(prometheusbp.ResultOK)
	promtest.ValidateMetrics(t, promNamespace)
}

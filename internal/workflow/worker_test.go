package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yodel/internal/notifications"
	"yodel/internal/pipeline"
	"yodel/internal/queue"
	"yodel/internal/testsupport"
	"yodel/internal/track"
	"yodel/internal/workflow"
)

// stubRunner mimics the pipeline contract against a real store: it skips
// tracks that are no longer pending and moves the rest to a terminal status.
type stubRunner struct {
	store *track.Store

	mu      sync.Mutex
	ids     []string
	seen    []track.Status
	fail    map[string]bool
	locked  map[string]int
	gate    chan struct{}
	started chan string
}

func newStubRunner(store *track.Store) *stubRunner {
	return &stubRunner{store: store, fail: map[string]bool{}, locked: map[string]int{}, started: make(chan string, 16)}
}

func (r *stubRunner) Run(ctx context.Context, id string) pipeline.Outcome {
	current, err := r.store.Get(ctx, id)
	if err != nil || current == nil || current.Status != track.StatusPending {
		return pipeline.Outcome{Result: pipeline.ResultSkipped, Track: current, Err: err}
	}
	r.mu.Lock()
	if r.locked[id] > 0 {
		r.locked[id]--
		r.mu.Unlock()
		return pipeline.Outcome{Result: pipeline.ResultSkipped, Track: current, Err: errors.New("database is locked")}
	}
	r.ids = append(r.ids, id)
	r.seen = append(r.seen, current.Status)
	gate := r.gate
	fail := r.fail[id]
	r.mu.Unlock()

	current.Status = track.StatusDownloading
	if err := r.store.Update(ctx, current); err != nil {
		return pipeline.Outcome{Result: pipeline.ResultSkipped, Err: err}
	}
	r.started <- id
	if gate != nil {
		<-gate
	}

	if fail {
		current.Status = track.StatusFailed
		_ = r.store.Update(context.Background(), current)
		return pipeline.Outcome{Result: pipeline.ResultFailed, Track: current, Err: errors.New("fetch exhausted")}
	}
	current.Status = track.StatusDownloaded
	current.AudioFileKey = "key-" + id
	_ = r.store.Update(context.Background(), current)
	return pipeline.Outcome{Result: pipeline.ResultDownloaded, Track: current}
}

func (r *stubRunner) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type countingHider struct {
	mu    sync.Mutex
	count int
}

func (h *countingHider) Hide() {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
}

func (h *countingHider) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.payloads = append(n.payloads, payload)
	return nil
}

func (n *recordingNotifier) last() (notifications.Event, notifications.Payload, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return "", nil, false
	}
	return n.events[len(n.events)-1], n.payloads[len(n.payloads)-1], true
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitStarted(t *testing.T, runner *stubRunner, want string) {
	t.Helper()
	select {
	case got := <-runner.started:
		if got != want {
			t.Fatalf("started %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s to start", want)
	}
}

func TestWorkerProcessesTracksInInsertionOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := newStubRunner(store)
	runner.gate = make(chan struct{})

	testsupport.NewTrack(t, store, "track000001", "first")
	worker := workflow.NewWorker(cfg, store, queue.New(), runner, nil, nil, nil)
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(worker.Stop)

	waitStarted(t, runner, "track000001")
	for _, id := range []string{"track000002", "track000003", "track000004"} {
		testsupport.NewTrack(t, store, id, id)
		time.Sleep(2 * time.Millisecond)
	}
	close(runner.gate)

	waitFor(t, "four downloads", func() bool { return len(runner.processed()) == 4 })
	want := []string{"track000001", "track000002", "track000003", "track000004"}
	got := runner.processed()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("processing order = %v, want %v", got, want)
		}
	}
}

func TestWorkerResetsDownloadingBeforeProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tr := testsupport.NewTrack(t, store, "track000001", "stuck")
	tr.Status = track.StatusDownloading
	if err := store.Update(context.Background(), tr); err != nil {
		t.Fatalf("Update: %v", err)
	}

	runner := newStubRunner(store)
	worker := workflow.NewWorker(cfg, store, queue.New(), runner, nil, nil, nil)
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(worker.Stop)

	waitFor(t, "reset track to be processed", func() bool { return len(runner.processed()) == 1 })
	runner.mu.Lock()
	status := runner.seen[0]
	runner.mu.Unlock()
	if status != track.StatusPending {
		t.Fatalf("pipeline saw %s, want pending", status)
	}
}

func TestWorkerReportsQueueCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := newStubRunner(store)
	runner.fail["track000002"] = true
	testsupport.NewTrack(t, store, "track000001", "good")
	testsupport.NewTrack(t, store, "track000002", "bad")

	hider := &countingHider{}
	notifier := &recordingNotifier{}
	worker := workflow.NewWorker(cfg, store, queue.New(), runner, hider, notifier, nil)
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(worker.Stop)

	waitFor(t, "queue completion", func() bool {
		event, _, ok := notifier.last()
		return ok && event == notifications.EventQueueCompleted
	})
	_, payload, _ := notifier.last()
	if payload["processed"] != 1 || payload["failed"] != 1 {
		t.Fatalf("completion payload = %v", payload)
	}
	if hider.Count() == 0 {
		t.Fatal("progress surface was never hidden")
	}

	summary := worker.Status(context.Background())
	if !summary.Running || summary.Processed != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.LastError == "" {
		t.Fatal("expected last error from failed track")
	}
	if summary.TrackStats[track.StatusDownloaded] != 1 || summary.TrackStats[track.StatusFailed] != 1 {
		t.Fatalf("track stats = %v", summary.TrackStats)
	}
}

func TestWorkerPicksUpRetriedTrack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := newStubRunner(store)
	runner.fail["track000001"] = true
	testsupport.NewTrack(t, store, "track000001", "flaky")

	worker := workflow.NewWorker(cfg, store, queue.New(), runner, nil, nil, nil)
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(worker.Stop)

	waitFor(t, "first attempt", func() bool { return len(runner.processed()) == 1 })
	waitFor(t, "failed status", func() bool {
		got, _ := store.Get(context.Background(), "track000001")
		return got != nil && got.Status == track.StatusFailed
	})

	runner.mu.Lock()
	runner.fail["track000001"] = false
	runner.mu.Unlock()
	if _, err := store.Retry(context.Background(), "track000001"); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	waitFor(t, "second attempt", func() bool { return len(runner.processed()) == 2 })
}

func TestWorkerStopInterruptsIdleWait(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	worker := workflow.NewWorker(cfg, store, queue.New(), newStubRunner(store), nil, nil, nil)
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := worker.Start(context.Background()); err == nil {
		t.Fatal("expected error starting a running worker")
	}

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	if worker.Status(context.Background()).Running {
		t.Fatal("worker still reports running")
	}
}

func TestWorkerRequeuesTrackSkippedByStoreError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := newStubRunner(store)
	runner.locked["track000001"] = 1
	testsupport.NewTrack(t, store, "track000001", "locked")

	worker := workflow.NewWorker(cfg, store, queue.New(), runner, nil, nil, nil)
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(worker.Stop)

	waitFor(t, "download after store error", func() bool {
		got, _ := store.Get(context.Background(), "track000001")
		return got != nil && got.Status == track.StatusDownloaded
	})
	if got := runner.processed(); len(got) != 1 {
		t.Fatalf("processed = %v, want one run", got)
	}
}

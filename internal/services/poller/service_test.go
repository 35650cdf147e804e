package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/routerllm/routerllm-tui/internal/models"
)

type mockFetcher struct {
	statsErr   error
	modelsErr  error
	statsCalls atomic.Int64
	modelCalls atomic.Int64
	block      chan struct{}
}

func (m *mockFetcher) Stats(ctx context.Context) (*models.StatsSnapshot, error) {
	m.statsCalls.Add(1)
	if m.block != nil {
		<-m.block
	}
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &models.StatsSnapshot{
		TotalRequests: 4,
		TotalCost:     0.0123,
		MostUsedModel: "gpt-4",
		ModelUsage:    map[string]int{"gpt-4": 4},
		FetchedAt:     time.Now(),
	}, nil
}

func (m *mockFetcher) Models(ctx context.Context) (models.ModelCatalog, error) {
	m.modelCalls.Add(1)
	if m.modelsErr != nil {
		return nil, m.modelsErr
	}
	return models.ModelCatalog{
		"gpt-4":          {Name: "gpt-4", Available: true},
		"claude-3-haiku": {Name: "claude-3-haiku", Available: false},
	}, nil
}

type mockActivity struct {
	calls atomic.Int64
	items []models.Activity
	err   error
}

func (m *mockActivity) Activities(ctx context.Context) ([]models.Activity, error) {
	m.calls.Add(1)
	return m.items, m.err
}

// manualTicker lets a test fire ticks by hand.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
	mu      sync.Mutex
	period  time.Duration
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) factory(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	m.period = d
	m.mu.Unlock()
	return m.ch, func() { m.stopped.Store(true) }
}

func newTestService(t *testing.T, fetcher Fetcher, activity ActivitySource) (*Service, *manualTicker) {
	t.Helper()
	ticker := newManualTicker()
	svc := New(fetcher, activity, Config{Interval: 5 * time.Second})
	svc.newTicker = ticker.factory
	t.Cleanup(func() { _ = svc.Close() })
	return svc, ticker
}

func waitEvent(t *testing.T, svc *Service) Event {
	t.Helper()
	select {
	case ev := <-svc.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller event")
		return Event{}
	}
}

func TestStart_OneTickOneAdditionalCycle(t *testing.T) {
	fetcher := &mockFetcher{}
	activity := &mockActivity{}
	svc, ticker := newTestService(t, fetcher, activity)

	svc.Start()
	first := waitEvent(t, svc)
	if first.Result.Seq != 1 {
		t.Errorf("first cycle Seq = %d, want 1", first.Result.Seq)
	}

	ticker.ch <- time.Now()
	second := waitEvent(t, svc)
	if second.Result.Seq != 2 {
		t.Errorf("second cycle Seq = %d, want 2", second.Result.Seq)
	}

	if got := svc.Cycles(); got != 2 {
		t.Errorf("Cycles() = %d, want 2", got)
	}
	if got := fetcher.statsCalls.Load(); got != 2 {
		t.Errorf("stats fetches = %d, want 2", got)
	}
	if got := fetcher.modelCalls.Load(); got != 2 {
		t.Errorf("models fetches = %d, want 2", got)
	}
	if got := activity.calls.Load(); got != 2 {
		t.Errorf("activity fetches = %d, want 2", got)
	}

	ticker.mu.Lock()
	period := ticker.period
	ticker.mu.Unlock()
	if period != 5*time.Second {
		t.Errorf("ticker period = %v, want 5s", period)
	}
}

func TestStart_Idempotent(t *testing.T) {
	fetcher := &mockFetcher{}
	svc, _ := newTestService(t, fetcher, &mockActivity{})

	svc.Start()
	svc.Start()
	waitEvent(t, svc)

	select {
	case ev := <-svc.Events():
		t.Errorf("unexpected extra cycle %d", ev.Result.Seq)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTicksOverlapWithoutGuard(t *testing.T) {
	fetcher := &mockFetcher{block: make(chan struct{})}
	svc, ticker := newTestService(t, fetcher, &mockActivity{})

	svc.Start()
	ticker.ch <- time.Now()

	// Both cycles are in flight at once; neither waits for the other.
	deadline := time.Now().Add(2 * time.Second)
	for fetcher.statsCalls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 concurrent stats fetches, got %d", fetcher.statsCalls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(fetcher.block)

	waitEvent(t, svc)
	waitEvent(t, svc)
}

func TestRunCycle_PartialFailure(t *testing.T) {
	fetcher := &mockFetcher{modelsErr: errors.New("models down")}
	svc, _ := newTestService(t, fetcher, &mockActivity{})

	result := svc.RunCycle(context.Background())

	if !result.Online() {
		t.Error("cycle should be online when stats succeeded")
	}
	if result.Stats == nil {
		t.Error("stats should be populated")
	}
	if result.ModelsErr == nil || result.Models != nil {
		t.Errorf("models part should have failed, got %v / %v", result.Models, result.ModelsErr)
	}
	if result.Err() == nil {
		t.Error("Err() should report the models failure")
	}

	ev := waitEvent(t, svc)
	if ev.Type != EventCyclePartial {
		t.Errorf("event type = %v, want EventCyclePartial", ev.Type)
	}
}

func TestRunCycle_Offline(t *testing.T) {
	fetcher := &mockFetcher{statsErr: errors.New("connection refused")}
	svc, _ := newTestService(t, fetcher, &mockActivity{})

	result := svc.RunCycle(context.Background())
	if result.Online() {
		t.Error("cycle should be offline when stats failed")
	}
	if result.Models == nil {
		t.Error("models should still be fetched when stats fail")
	}
}

func TestRunCycle_CapsActivities(t *testing.T) {
	items := make([]models.Activity, 8)
	svc, _ := newTestService(t, &mockFetcher{}, &mockActivity{items: items})

	result := svc.RunCycle(context.Background())
	if len(result.Activities) != models.MaxActivities {
		t.Errorf("len(Activities) = %d, want %d", len(result.Activities), models.MaxActivities)
	}
}

func TestLatest(t *testing.T) {
	svc, _ := newTestService(t, &mockFetcher{}, &mockActivity{})

	if svc.Latest() != nil {
		t.Error("Latest() should be nil before any cycle")
	}

	svc.RunCycle(context.Background())
	second := svc.RunCycle(context.Background())

	if svc.Latest() != second {
		t.Error("Latest() should return the newest cycle")
	}
}

func TestDefaultActivitySource(t *testing.T) {
	fetcher := &mockFetcher{}
	svc := New(fetcher, nil, Config{})
	defer svc.Close()

	if svc.Interval() != DefaultConfig().Interval {
		t.Errorf("Interval() = %v, want default", svc.Interval())
	}

	result := svc.RunCycle(context.Background())
	if len(result.Activities) != 2 {
		t.Fatalf("len(Activities) = %d, want 2", len(result.Activities))
	}
	if fetcher.statsCalls.Load() != 2 {
		t.Errorf("stats fetches = %d, want 2 (dashboard plus feed)", fetcher.statsCalls.Load())
	}
}

func TestClose_StopsTicker(t *testing.T) {
	svc, ticker := newTestService(t, &mockFetcher{}, &mockActivity{})
	svc.Start()
	waitEvent(t, svc)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !ticker.stopped.Load() {
		if time.Now().After(deadline) {
			t.Fatal("ticker was not stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSynthesize(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		stats  *models.StatsSnapshot
		titles []string
	}{
		{"Nil", nil, nil},
		{"Empty", &models.StatsSnapshot{FetchedAt: now}, nil},
		{"RequestsOnly", &models.StatsSnapshot{TotalRequests: 2, MostUsedModel: "gpt-4", FetchedAt: now}, []string{"Request processed"}},
		{"Both", &models.StatsSnapshot{TotalRequests: 2, TotalCost: 0.5, FetchedAt: now}, []string{"Request processed", "Cost updated"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(tt.stats)
			if len(got) != len(tt.titles) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.titles))
			}
			for i, title := range tt.titles {
				if got[i].Title != title {
					t.Errorf("got[%d].Title = %q, want %q", i, got[i].Title, title)
				}
			}
		})
	}

	got := Synthesize(&models.StatsSnapshot{TotalRequests: 1, TotalCost: 0.01234, FetchedAt: now})
	if got[0].Description != "Model: N/A" {
		t.Errorf("missing model description = %q", got[0].Description)
	}
	if got[1].Description != "Total: $0.0123" {
		t.Errorf("cost description = %q", got[1].Description)
	}
}

func TestCap(t *testing.T) {
	for _, n := range []int{0, 3, 5, 6, 20} {
		got := Cap(make([]models.Activity, n))
		if len(got) > models.MaxActivities {
			t.Errorf("Cap(%d) returned %d entries", n, len(got))
		}
	}
}

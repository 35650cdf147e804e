package db

import (
	"context"
	"testing"
	"time"

	"github.com/routerllm/routerllm-tui/internal/models"
)

func snapshot(requests int, cost float64, usage map[string]int) *models.StatsSnapshot {
	return &models.StatsSnapshot{
		TotalRequests:   requests,
		TotalCost:       cost,
		AvgResponseTime: 1.1,
		ModelUsage:      usage,
		FetchedAt:       time.Date(2024, 6, 1, 12, 0, requests, 0, time.UTC),
	}
}

func TestInsertSnapshot(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	rec, err := db.InsertSnapshot("session-1", snapshot(3, 0.01, map[string]int{"gpt-4": 2, "claude-3-haiku": 1}), 2)
	if err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if rec.ActiveModels != 2 {
		t.Errorf("ActiveModels = %d, want 2", rec.ActiveModels)
	}

	records, err := db.RecentSnapshots(10)
	if err != nil {
		t.Fatalf("RecentSnapshots failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	got := records[0]
	if got.SessionID != "session-1" || got.TotalRequests != 3 || got.TotalCost != 0.01 {
		t.Errorf("unexpected record: %+v", got)
	}
	want := time.Date(2024, 6, 1, 12, 0, 3, 0, time.UTC)
	if !got.RecordedAt.Equal(want) {
		t.Errorf("RecordedAt = %v, want %v", got.RecordedAt, want)
	}

	var usageRows int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM model_usage WHERE snapshot_id = ?", rec.ID).Scan(&usageRows); err != nil {
		t.Fatalf("count model_usage failed: %v", err)
	}
	if usageRows != 2 {
		t.Errorf("model_usage rows = %d, want 2", usageRows)
	}
}

func TestInsertSnapshot_Nil(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if _, err := db.InsertSnapshot("s", nil, 0); err == nil {
		t.Error("expected error for nil snapshot")
	}
}

func TestRecentSnapshots_OldestFirst(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for i := 1; i <= 5; i++ {
		if _, err := db.InsertSnapshot("s", snapshot(i, float64(i)/100, nil), 1); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}

	records, err := db.RecentSnapshots(3)
	if err != nil {
		t.Fatalf("RecentSnapshots failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	for i, want := range []int{3, 4, 5} {
		if records[i].TotalRequests != want {
			t.Errorf("records[%d].TotalRequests = %d, want %d", i, records[i].TotalRequests, want)
		}
	}
}

func TestCostSeries(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	costs := []float64{0.001, 0.003, 0.006}
	for i, c := range costs {
		if _, err := db.InsertSnapshot("s", snapshot(i+1, c, nil), 1); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}

	series, err := db.CostSeries(10)
	if err != nil {
		t.Fatalf("CostSeries failed: %v", err)
	}
	if len(series) != len(costs) {
		t.Fatalf("len(series) = %d, want %d", len(series), len(costs))
	}
	for i := range costs {
		if series[i] != costs[i] {
			t.Errorf("series[%d] = %v, want %v", i, series[i], costs[i])
		}
	}
}

func TestModelUsageSeries(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	usages := []map[string]int{
		{"gpt-4": 1},
		{"claude-3-haiku": 4},
		{"gpt-4": 3, "claude-3-haiku": 4},
	}
	for i, u := range usages {
		if _, err := db.InsertSnapshot("s", snapshot(i+1, 0, u), 1); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}

	series, err := db.ModelUsageSeries("gpt-4", 10)
	if err != nil {
		t.Fatalf("ModelUsageSeries failed: %v", err)
	}
	want := []float64{1, 0, 3}
	if len(series) != len(want) {
		t.Fatalf("len(series) = %d, want %d", len(series), len(want))
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %v, want %v", i, series[i], want[i])
		}
	}
}

func TestPruneSnapshots(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for i := 1; i <= 6; i++ {
		if _, err := db.InsertSnapshot("s", snapshot(i, 0, map[string]int{"gpt-4": i}), 1); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}

	deleted, err := db.PruneSnapshots(2)
	if err != nil {
		t.Fatalf("PruneSnapshots failed: %v", err)
	}
	if deleted != 4 {
		t.Errorf("deleted = %d, want 4", deleted)
	}

	n, err := db.CountSnapshots()
	if err != nil {
		t.Fatalf("CountSnapshots failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountSnapshots = %d, want 2", n)
	}

	var orphans int
	if err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM model_usage WHERE snapshot_id NOT IN (SELECT id FROM stats_snapshots)",
	).Scan(&orphans); err != nil {
		t.Fatalf("orphan count failed: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned model_usage rows = %d, want 0", orphans)
	}
}

func TestNormalizeTimestamps(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if _, err := db.ExecContext(context.Background(),
		"INSERT INTO stats_snapshots (session_id, recorded_at) VALUES (?, ?)",
		"legacy", "2024-06-01 12:00:00 +0000 UTC",
	); err != nil {
		t.Fatalf("insert legacy row failed: %v", err)
	}

	if err := db.NormalizeTimestamps(); err != nil {
		t.Fatalf("NormalizeTimestamps failed: %v", err)
	}

	var raw string
	if err := db.QueryRowContext(context.Background(),
		"SELECT CAST(recorded_at AS TEXT) FROM stats_snapshots WHERE session_id = 'legacy'",
	).Scan(&raw); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if raw != "2024-06-01 12:00:00" {
		t.Errorf("recorded_at = %q, want 2024-06-01 12:00:00", raw)
	}
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// InsertSnapshot records one stats reading together with its per-model usage.
func (db *DB) InsertSnapshot(sessionID string, stats *models.StatsSnapshot, activeModels int) (*models.SnapshotRecord, error) {
	if stats == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}

	recordedAt := stats.FetchedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	recordedAt = recordedAt.UTC().Truncate(time.Second)

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(context.Background(), `
		INSERT INTO stats_snapshots (
			session_id, total_requests, total_cost, avg_response_time, active_models, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		sessionID,
		stats.TotalRequests,
		stats.TotalCost,
		stats.AvgResponseTime,
		activeModels,
		recordedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	for model, count := range stats.ModelUsage {
		if _, err := tx.ExecContext(context.Background(),
			"INSERT INTO model_usage (snapshot_id, model, requests) VALUES (?, ?, ?)",
			id, model, count,
		); err != nil {
			return nil, fmt.Errorf("failed to insert model usage for %s: %w", model, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return &models.SnapshotRecord{
		ID:              id,
		SessionID:       sessionID,
		TotalRequests:   stats.TotalRequests,
		TotalCost:       stats.TotalCost,
		AvgResponseTime: stats.AvgResponseTime,
		ActiveModels:    activeModels,
		RecordedAt:      recordedAt,
	}, nil
}

// RecentSnapshots returns up to limit snapshots, oldest first.
func (db *DB) RecentSnapshots(limit int) ([]models.SnapshotRecord, error) {
	query := `
		SELECT id, session_id, total_requests, total_cost, avg_response_time, active_models, recorded_at
		FROM (
			SELECT * FROM stats_snapshots ORDER BY id DESC LIMIT ?
		)
		ORDER BY id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.SnapshotRecord
	for rows.Next() {
		var r models.SnapshotRecord
		if err := rows.Scan(
			&r.ID,
			&r.SessionID,
			&r.TotalRequests,
			&r.TotalCost,
			&r.AvgResponseTime,
			&r.ActiveModels,
			&r.RecordedAt,
		); err != nil {
			logger.Warn("skipping unreadable snapshot row", "error", err)
			continue
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// CostSeries returns the total cost of the last limit snapshots, oldest first,
// ready to plot.
func (db *DB) CostSeries(limit int) ([]float64, error) {
	records, err := db.RecentSnapshots(limit)
	if err != nil {
		return nil, err
	}

	series := make([]float64, len(records))
	for i, r := range records {
		series[i] = r.TotalCost
	}
	return series, nil
}

// ModelUsageSeries returns the request count of one model across the last
// limit snapshots, oldest first. Snapshots without the model count as 0.
func (db *DB) ModelUsageSeries(model string, limit int) ([]float64, error) {
	query := `
		SELECT COALESCE(mu.requests, 0)
		FROM (
			SELECT id FROM stats_snapshots ORDER BY id DESC LIMIT ?
		) s
		LEFT JOIN model_usage mu ON mu.snapshot_id = s.id AND mu.model = ?
		ORDER BY s.id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, limit, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query model usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var series []float64
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan model usage: %w", err)
		}
		series = append(series, float64(n))
	}
	return series, rows.Err()
}

// PruneSnapshots keeps only the newest keep snapshots and returns how many
// were deleted. Per-model rows of deleted snapshots are removed with them.
func (db *DB) PruneSnapshots(keep int) (int64, error) {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(context.Background(), `
		DELETE FROM stats_snapshots
		WHERE id NOT IN (SELECT id FROM stats_snapshots ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	// foreign_keys is a per-connection pragma, so cascades are not guaranteed
	// on every pooled connection.
	if _, err := tx.ExecContext(context.Background(),
		"DELETE FROM model_usage WHERE snapshot_id NOT IN (SELECT id FROM stats_snapshots)",
	); err != nil {
		return 0, fmt.Errorf("failed to prune model usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return result.RowsAffected()
}

// CountSnapshots returns the number of stored snapshots.
func (db *DB) CountSnapshots() (int, error) {
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM stats_snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

package db

import (
	"context"
	"fmt"
)

// NormalizeTimestamps rewrites recorded_at values that were stored with a
// zone suffix (" +0000 UTC") into the plain "YYYY-MM-DD HH:MM:SS" form that
// SQLite's date functions understand. modernc.org/sqlite writes that suffix
// when a time.Time is bound directly instead of a formatted string.
func (db *DB) NormalizeTimestamps() error {
	query := `UPDATE stats_snapshots
		 SET recorded_at = SUBSTR(recorded_at, 1, 19)
		 WHERE length(recorded_at) > 19 AND recorded_at LIKE '% UTC'`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to normalize timestamps: %w", err)
	}
	return nil
}

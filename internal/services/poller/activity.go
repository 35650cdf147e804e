package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/routerllm/routerllm-tui/internal/models"
)

// ActivitySource produces the entries shown in the dashboard activity feed.
type ActivitySource interface {
	Activities(ctx context.Context) ([]models.Activity, error)
}

// StatsFetcher is the subset of the router client the synthesized feed needs.
type StatsFetcher interface {
	Stats(ctx context.Context) (*models.StatsSnapshot, error)
}

// StatsActivity synthesizes feed entries from a fresh stats reading. The
// router has no event log, so the feed reflects aggregate counters only.
type StatsActivity struct {
	Fetcher StatsFetcher
}

// Activities fetches stats and derives feed entries from them.
func (s StatsActivity) Activities(ctx context.Context) ([]models.Activity, error) {
	stats, err := s.Fetcher.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return Synthesize(stats), nil
}

// Synthesize derives at most models.MaxActivities entries from a snapshot,
// most recent first.
func Synthesize(stats *models.StatsSnapshot) []models.Activity {
	if stats == nil {
		return nil
	}

	at := stats.FetchedAt
	if at.IsZero() {
		at = time.Now()
	}

	var activities []models.Activity
	if stats.TotalRequests > 0 {
		model := stats.MostUsedModel
		if model == "" {
			model = "N/A"
		}
		activities = append(activities, models.Activity{
			Kind:        models.ActivitySuccess,
			Title:       "Request processed",
			Description: "Model: " + model,
			At:          at,
		})
	}

	if stats.TotalCost > 0 {
		activities = append(activities, models.Activity{
			Kind:        models.ActivityInfo,
			Title:       "Cost updated",
			Description: fmt.Sprintf("Total: $%.4f", stats.TotalCost),
			At:          at,
		})
	}

	return Cap(activities)
}

// Cap trims a feed to models.MaxActivities entries.
func Cap(activities []models.Activity) []models.Activity {
	if len(activities) > models.MaxActivities {
		return activities[:models.MaxActivities]
	}
	return activities
}

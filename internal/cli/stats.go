package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/routerllm/routerllm-tui/internal/models"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show router usage statistics",
		Long: `Show the router's aggregate usage counters: total requests,
total cost, average response time and per-model request counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := newClient(opts)
			if err != nil {
				return err
			}

			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch stats: %w", err)
			}

			printStats(cmd, stats)
			return nil
		},
	}
}

func printStats(cmd *cobra.Command, stats *models.StatsSnapshot) {
	out := cmd.OutOrStdout()

	mostUsed := stats.MostUsedModel
	if mostUsed == "" {
		mostUsed = "-"
	}

	fmt.Fprintln(out, "Router Statistics")
	fmt.Fprintln(out, "=================")
	fmt.Fprintf(out, "Total Requests:  %d\n", stats.TotalRequests)
	fmt.Fprintf(out, "Total Cost:      $%.4f\n", stats.TotalCost)
	fmt.Fprintf(out, "Avg Response:    %.0fms\n", stats.AvgResponseTimeMs())
	fmt.Fprintf(out, "Most Used:       %s\n", mostUsed)

	if len(stats.ModelUsage) == 0 {
		return
	}

	names := make([]string, 0, len(stats.ModelUsage))
	for name := range stats.ModelUsage {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := stats.ModelUsage[names[i]], stats.ModelUsage[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Model Usage")
	fmt.Fprintln(out, "-----------")
	for _, name := range names {
		fmt.Fprintf(out, "  %-30s %d\n", name, stats.ModelUsage[name])
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routerllm/routerllm-tui/internal/models"
)

func newModelsCmd(opts *options) *cobra.Command {
	var availableOnly bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the router can dispatch to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := newClient(opts)
			if err != nil {
				return err
			}

			catalog, err := client.Models(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch models: %w", err)
			}

			printModels(cmd, catalog, availableOnly)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&availableOnly, "available", "a", false, "only list available models")

	return cmd
}

func printModels(cmd *cobra.Command, catalog models.ModelCatalog, availableOnly bool) {
	out := cmd.OutOrStdout()

	if len(catalog) == 0 {
		fmt.Fprintln(out, "No models configured")
		return
	}

	fmt.Fprintf(out, "%-30s %-10s %-8s %-10s %s\n", "MODEL", "PROVIDER", "SPEED", "$/1K", "STATUS")
	for _, m := range catalog.Sorted() {
		if availableOnly && !m.Available {
			continue
		}
		status := "unavailable"
		if m.Available {
			status = "available"
		}
		fmt.Fprintf(out, "%-30s %-10s %-8s %-10.4f %s\n", m.Name, m.Provider, m.Speed, m.CostPer1kTokens, status)
	}

	fmt.Fprintf(out, "\n%d of %d models available\n", catalog.ActiveCount(), len(catalog))
}

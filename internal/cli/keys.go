package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routerllm/routerllm-tui/internal/models"
	"github.com/routerllm/routerllm-tui/internal/services/keys"
)

func newKeysCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys",
		Long: `Show, test and store the provider API keys held by the router.

Providers: ` + strings.Join(models.Providers, ", "),
	}

	cmd.AddCommand(
		newKeysStatusCmd(opts),
		newKeysActionCmd(opts, "test", "Test a key without saving it", "Test", (*keys.Service).Test),
		newKeysActionCmd(opts, "save", "Save a key for one provider", "Save", (*keys.Service).Save),
		newKeysSaveAllCmd(opts),
	)

	return cmd
}

func newKeysService(opts *options) (*keys.Service, error) {
	client, _, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return keys.New(client), nil
}

func validateProvider(provider string) error {
	if !slices.Contains(models.Providers, provider) {
		return fmt.Errorf("unknown provider %q (want one of: %s)", provider, strings.Join(models.Providers, ", "))
	}
	return nil
}

func newKeysStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which providers are connected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newKeysService(opts)
			if err != nil {
				return err
			}

			status, err := svc.LoadStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load key status: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, p := range status.Providers {
				mark := "✗"
				if p.Available {
					mark = "✓"
				}
				key := "-"
				if p.Key != "" {
					key = keys.MaskKey(p.Key)
				}
				fmt.Fprintf(out, "%s %-10s %s\n", mark, p.Provider, key)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, status.Label())
			return nil
		},
	}
}

// newKeysActionCmd builds a single-provider command around one service call.
func newKeysActionCmd(opts *options, use, short, action string, call func(*keys.Service, context.Context, string, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <provider> <key>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(args[0])
			if err := validateProvider(provider); err != nil {
				return err
			}

			svc, err := newKeysService(opts)
			if err != nil {
				return err
			}

			if err := call(svc, cmd.Context(), provider, args[1]); err != nil {
				return errors.New(keys.Describe(action, err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s succeeded for %s\n", action, provider)
			return nil
		},
	}
}

func newKeysSaveAllCmd(opts *options) *cobra.Command {
	inputs := make(map[string]*string, len(models.Providers))

	cmd := &cobra.Command{
		Use:   "save-all",
		Short: "Save several provider keys in one request",
		Long: `Save several provider keys in one request. Providers left blank are
skipped.

Example:
  routerllm keys save-all --openai sk-... --google AIza...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values := make(map[string]string, len(inputs))
			for provider, v := range inputs {
				values[provider] = *v
			}

			svc, err := newKeysService(opts)
			if err != nil {
				return err
			}

			n, err := svc.SaveAll(cmd.Context(), values)
			if err != nil {
				return errors.New(keys.Describe("Save all", err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d key(s)\n", n)
			return nil
		},
	}

	for _, provider := range models.Providers {
		inputs[provider] = cmd.Flags().String(provider, "", provider+" API key")
	}

	return cmd
}

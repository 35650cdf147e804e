// Package cli wires the command line: the root command runs the TUI and the
// subcommands talk to the router directly.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routerllm/routerllm-tui/internal/backend"
	"github.com/routerllm/routerllm-tui/internal/config"
)

// options holds the persistent flags shared by every command.
type options struct {
	routerURL string
}

// newRootCmd builds the full command tree.
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "routerllm",
		Short: "Terminal client for the RouterLLM service",
		Long: `routerllm is a terminal client for an LLM routing service.

Without a subcommand it opens the interactive dashboard with the
Chat, Dashboard, Keys and Info tabs.

Keyboard Shortcuts:
  1-4             Switch tabs (Chat, Dashboard, Keys, Info)
  Tab/Shift+Tab   Next/previous tab
  r               Refresh data
  t               Toggle theme
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  ROUTER_URL              Router base URL (default: http://localhost:8000)
  POLL_INTERVAL           Dashboard polling interval (default: 5s)
  REQUEST_TIMEOUT         Per-request timeout (default: 30s)
  DATABASE_PATH           SQLite snapshot history path
  PREFERENCES_PATH        Preferences JSON file path
  LOG_PATH, LOG_LEVEL     Log file and level
  CHAT_USER_ID            User ID sent with chat requests
  DESKTOP_NOTIFICATIONS   Notify when the router goes offline (default: true)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.routerURL, "url", "", "router base URL (overrides ROUTER_URL)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatsCmd(opts),
		newModelsCmd(opts),
		newChatCmd(opts),
		newKeysCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.routerURL != "" {
		cfg.RouterURL = strings.TrimRight(opts.routerURL, "/")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// newClient returns a router client for one-shot commands.
func newClient(opts *options) (*backend.Client, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	return backend.New(cfg.RouterURL, cfg.RequestTimeout, backend.WithUserID(cfg.ChatUserID)), cfg, nil
}

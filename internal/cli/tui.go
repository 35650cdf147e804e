package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/config"
	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/services"
	"github.com/routerllm/routerllm-tui/internal/ui/tabs/chat"
	"github.com/routerllm/routerllm-tui/internal/ui/tabs/dashboard"
	"github.com/routerllm/routerllm-tui/internal/ui/tabs/info"
	"github.com/routerllm/routerllm-tui/internal/ui/tabs/keys"
)

// runTUI starts the services and runs the Bubble Tea program until the user
// quits.
func runTUI(_ *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logCloser, err := logger.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	logger.Info("starting", "router", cfg.RouterURL, "poll_interval", cfg.PollInterval)

	mgr, err := services.NewManager(cfg, services.WithThemeDetector(lipgloss.HasDarkBackground))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(mgr)
	model.SetTabs(buildTabs(model.GetState(), cfg, mgr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// buildTabs creates the tabs in TabID order. Each tab gets only the
// services it uses.
func buildTabs(state *app.State, cfg *config.Config, mgr *services.Manager) []app.Tab {
	client := mgr.Client()

	var history info.SnapshotCounter
	if database := mgr.Database(); database != nil {
		history = database
	}

	return []app.Tab{
		chat.New(state, mgr.NewChatSession(), client),
		dashboard.New(state, client, mgr.Poller()),
		keys.New(state, mgr.Keys()),
		info.New(state, cfg, client, history, mgr.SessionID()),
	}
}

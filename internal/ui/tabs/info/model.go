// Package info provides the configuration and version tab.
package info

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/config"
	"github.com/routerllm/routerllm-tui/internal/models"
)

const (
	opServer    = "info.server"
	opSnapshots = "info.snapshots"
)

// ServerSource describes the router.
type ServerSource interface {
	Info(ctx context.Context) (*models.ServerInfo, error)
}

// SnapshotCounter reports how many snapshots the history holds.
type SnapshotCounter interface {
	CountSnapshots() (int, error)
}

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Reload key.Binding
	Up     key.Binding
	Down   key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Reload: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "reload server info"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state     *app.State
	config    *config.Config
	source    ServerSource
	history   SnapshotCounter
	server    *models.ServerInfo
	serverErr error
	sessionID string
	snapshots int
	width     int
	height    int
	keys      keyMap
	viewport  viewport.Model
}

// New creates a new info model. source and history may be nil.
func New(state *app.State, cfg *config.Config, source ServerSource, history SnapshotCounter, sessionID string) *Model {
	return &Model{
		state:     state,
		config:    cfg,
		source:    source,
		history:   history,
		sessionID: sessionID,
		snapshots: -1,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
	}
}

// Init loads server info and the snapshot count.
func (m *Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	var cmds []tea.Cmd

	if m.source != nil {
		source := m.source
		cmds = append(cmds, app.Request(opServer, func(ctx context.Context) (*models.ServerInfo, error) {
			return source.Info(ctx)
		}))
	}

	if m.history != nil {
		history := m.history
		cmds = append(cmds, app.Request(opSnapshots, func(context.Context) (int, error) {
			return history.CountSnapshots()
		}))
	}

	return tea.Batch(cmds...)
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.ResultMsg[*models.ServerInfo]:
		if msg.Op == opServer {
			m.server = msg.Value
			m.serverErr = msg.Err
		}

	case app.ResultMsg[int]:
		if msg.Op == opSnapshots && msg.Err == nil {
			m.snapshots = msg.Value
		}

	case app.RefreshMsg:
		cmds = append(cmds, m.reload())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Reload):
			cmds = append(cmds, m.reload())
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// Capturing reports whether the tab is holding keyboard input.
func (m *Model) Capturing() bool {
	return false
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Reload,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Reload},
		{m.keys.Up, m.keys.Down},
	}
}

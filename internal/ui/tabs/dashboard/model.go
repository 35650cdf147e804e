// Package dashboard provides the router monitoring tab.
package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/models"
	"github.com/routerllm/routerllm-tui/internal/services"
	chatsvc "github.com/routerllm/routerllm-tui/internal/services/chat"
	"github.com/routerllm/routerllm-tui/internal/services/poller"
	"github.com/routerllm/routerllm-tui/internal/ui/components"
)

const opTest = "dashboard.test"

// autoModel is the selector entry that lets the router choose.
const autoModel = "auto"

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Refresher starts an immediate poll cycle.
type Refresher interface {
	Refresh()
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Focus     key.Binding
	Blur      key.Binding
	Send      key.Binding
	NextModel key.Binding
	PrevModel key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Focus: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i", "test request"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave input"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send test"),
		),
		NextModel: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next model"),
		),
		PrevModel: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "prev model"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state        *app.State
	sender       chatsvc.Sender
	refresher    Refresher
	latest       *poller.CycleResult
	testResult   *models.ChatResult
	testErr      error
	now          func() time.Time
	spinner      components.LoadingSpinner
	keys         keyMap
	input        textinput.Model
	viewport     viewport.Model
	costHistory  []float64
	usageHistory []float64
	width        int
	height       int
	selected     int
	frame        int
	testing      bool
}

// New creates a new dashboard model.
func New(state *app.State, sender chatsvc.Sender, refresher Refresher) *Model {
	input := textinput.New()
	input.Placeholder = "Message for a test request"
	input.CharLimit = 1000
	input.Prompt = "› "

	return &Model{
		state:     state,
		sender:    sender,
		refresher: refresher,
		now:       time.Now,
		spinner:   components.NewSpinner("Sending test request..."),
		keys:      defaultKeyMap(),
		input:     input,
		viewport:  viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return animationTickCmd()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		m.frame++
		if m.latest == nil {
			cmds = append(cmds, animationTickCmd())
		}

	case app.ServiceEventMsg:
		if event, ok := msg.Event.(services.DashboardUpdatedEvent); ok {
			m.apply(event)
		}

	case app.ResultMsg[*models.ChatResult]:
		if msg.Op == opTest {
			cmds = append(cmds, m.handleTestResult(msg.Value, msg.Err))
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		if m.testing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		if m.input.Focused() {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// apply stores a cycle result. Cycles may finish out of order, so a result
// older than the one on screen is dropped. A part that failed keeps the
// previous cycle's value; its error stays set so the view marks it stale.
func (m *Model) apply(event services.DashboardUpdatedEvent) {
	if event.Result == nil {
		return
	}
	if m.latest != nil && event.Result.Seq < m.latest.Seq {
		return
	}
	m.latest = merge(m.latest, event.Result)
	if event.CostHistory != nil {
		m.costHistory = event.CostHistory
	}
	if event.Result.StatsErr == nil {
		m.usageHistory = event.UsageHistory
	}

	if m.selected >= len(m.modelChoices()) {
		m.selected = 0
	}
}

func merge(prev, next *poller.CycleResult) *poller.CycleResult {
	merged := *next
	if prev == nil {
		return &merged
	}
	if merged.StatsErr != nil {
		merged.Stats = prev.Stats
	}
	if merged.ModelsErr != nil {
		merged.Models = prev.Models
	}
	if merged.ActivityErr != nil {
		merged.Activities = prev.Activities
	}
	return &merged
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.Blur):
			m.input.Blur()
			return nil
		case key.Matches(msg, m.keys.Send):
			return m.runTest()
		case key.Matches(msg, m.keys.NextModel):
			m.selected = (m.selected + 1) % len(m.modelChoices())
			return nil
		case key.Matches(msg, m.keys.PrevModel):
			n := len(m.modelChoices())
			m.selected = (m.selected - 1 + n) % n
			return nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	if key.Matches(msg, m.keys.Focus) {
		return m.input.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *Model) runTest() tea.Cmd {
	if m.testing {
		return app.NotifyWarning("A test request is already running")
	}

	message := m.input.Value()
	forceModel := m.ForceModel()
	sender := m.sender

	if strings.TrimSpace(message) == "" {
		return app.NotifyWarning("Please enter a test message")
	}

	m.testing = true
	m.testResult = nil
	m.testErr = nil

	return tea.Batch(
		m.spinner.Tick(),
		app.Request(opTest, func(ctx context.Context) (*models.ChatResult, error) {
			return RunTestRequest(ctx, sender, message, forceModel)
		}),
	)
}

func (m *Model) handleTestResult(result *models.ChatResult, err error) tea.Cmd {
	m.testing = false
	m.testResult = result
	m.testErr = err

	var cmds []tea.Cmd
	if err != nil {
		cmds = append(cmds, app.NotifyError(chatsvc.ErrorText(err)))
	} else {
		cmds = append(cmds, app.NotifySuccess("Test request completed"))
	}

	if m.refresher != nil {
		refresher := m.refresher
		cmds = append(cmds, func() tea.Msg {
			refresher.Refresh()
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// modelChoices lists the selector entries: auto first, then every model
// from the latest catalog.
func (m *Model) modelChoices() []string {
	choices := []string{autoModel}
	if m.latest != nil && m.latest.Models != nil {
		choices = append(choices, m.latest.Models.Names()...)
	}
	return choices
}

// ForceModel returns the model the next test is pinned to, or "" for auto.
func (m *Model) ForceModel() string {
	choices := m.modelChoices()
	if m.selected <= 0 || m.selected >= len(choices) {
		return ""
	}
	return choices[m.selected]
}

// Latest returns the cycle result on screen.
func (m *Model) Latest() *poller.CycleResult {
	return m.latest
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.input.Width = max(width-20, 20)
}

// Capturing reports whether the test message input has focus.
func (m *Model) Capturing() bool {
	return m.input.Focused()
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Focus, m.keys.Send, m.keys.NextModel, m.keys.Blur}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Focus, m.keys.Send, m.keys.Blur},
		{m.keys.NextModel, m.keys.PrevModel},
	}
}

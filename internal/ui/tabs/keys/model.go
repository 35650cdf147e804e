// Package keys provides the provider API key tab.
package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/models"
	keysvc "github.com/routerllm/routerllm-tui/internal/services/keys"
	"github.com/routerllm/routerllm-tui/internal/ui/components"
	"github.com/routerllm/routerllm-tui/internal/ui/styles"
)

const (
	opStatus  = "keys.status"
	opTest    = "keys.test"
	opSave    = "keys.save"
	opSaveAll = "keys.save_all"
)

var providerNames = map[string]string{
	models.ProviderOpenAI:    "OpenAI",
	models.ProviderAnthropic: "Anthropic",
	models.ProviderGoogle:    "Google",
}

// DisplayName returns the human name of a provider.
func DisplayName(provider string) string {
	if name, ok := providerNames[provider]; ok {
		return name
	}
	return provider
}

// actionResult is what a test or save reports back.
type actionResult struct {
	Provider string
	Key      string
	Saved    int
}

// reloadMsg asks the tab to reload provider status.
type reloadMsg struct{}

// keyMap defines the key bindings specific to the keys tab.
type keyMap struct {
	Edit    key.Binding
	Escape  key.Binding
	Save    key.Binding
	Test    key.Binding
	SaveAll key.Binding
	Toggle  key.Binding
	Reload  key.Binding
	Next    key.Binding
	Prev    key.Binding
}

// defaultKeyMap returns the default key bindings for the keys tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Edit: key.NewBinding(
			key.WithKeys("enter", "i"),
			key.WithHelp("enter", "edit key"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "done"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Test: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "test"),
		),
		SaveAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "save all"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "show/hide"),
		),
		Reload: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "reload status"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
	}
}

// Model represents the keys tab state.
type Model struct {
	state   *app.State
	service *keysvc.Service
	status  *keysvc.Status
	loadErr error
	inputs  map[string]*textinput.Model
	visible map[string]bool
	table   table.Model
	spinner components.LoadingSpinner
	keys    keyMap
	busy    string
	width   int
	height  int
	editing bool
}

// New creates a new keys model.
func New(state *app.State, service *keysvc.Service) *Model {
	inputs := make(map[string]*textinput.Model, len(models.Providers))
	for _, provider := range models.Providers {
		input := textinput.New()
		input.Placeholder = "Paste " + DisplayName(provider) + " API key..."
		input.CharLimit = 256
		input.Width = 50
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
		inputs[provider] = &input
	}

	columns := []table.Column{
		{Title: "Provider", Width: 12},
		{Title: "Status", Width: 16},
		{Title: "Key", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(len(models.Providers)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	m := &Model{
		state:   state,
		service: service,
		inputs:  inputs,
		visible: make(map[string]bool),
		table:   t,
		spinner: components.NewSpinner("Loading provider status..."),
		keys:    defaultKeyMap(),
	}
	m.updateTableData()
	return m
}

// Init loads provider status.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick(), m.loadStatus())
}

// Update handles messages for the keys tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.ResultMsg[*keysvc.Status]:
		if msg.Op == opStatus {
			cmds = append(cmds, m.handleStatus(msg.Value, msg.Err))
		}

	case app.ResultMsg[actionResult]:
		cmds = append(cmds, m.handleAction(msg))

	case reloadMsg, app.RefreshMsg:
		cmds = append(cmds, m.loadStatus())

	case tea.KeyMsg:
		if m.editing {
			return m, m.updateEditing(msg)
		}
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		if m.busy != "" || (m.status == nil && m.loadErr == nil) {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		if m.editing {
			var cmd tea.Cmd
			input := m.inputs[m.Selected()]
			*input, cmd = input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	provider := m.Selected()

	switch {
	case key.Matches(msg, m.keys.Edit):
		return m.startEditing()
	case key.Matches(msg, m.keys.Save):
		return m.save(provider)
	case key.Matches(msg, m.keys.Test):
		return m.test(provider)
	case key.Matches(msg, m.keys.SaveAll):
		return m.saveAll()
	case key.Matches(msg, m.keys.Toggle):
		m.toggleVisibility(provider)
		return nil
	case key.Matches(msg, m.keys.Reload):
		return m.loadStatus()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

// updateEditing handles keys while a key input has focus.
func (m *Model) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.stopEditing()
		return nil
	case msg.String() == "enter":
		provider := m.Selected()
		m.stopEditing()
		return m.save(provider)
	case key.Matches(msg, m.keys.Next):
		m.moveSelection(1)
		return m.startEditing()
	case key.Matches(msg, m.keys.Prev):
		m.moveSelection(-1)
		return m.startEditing()
	}

	var cmd tea.Cmd
	input := m.inputs[m.Selected()]
	*input, cmd = input.Update(msg)
	return cmd
}

func (m *Model) startEditing() tea.Cmd {
	for _, input := range m.inputs {
		input.Blur()
	}
	m.editing = true
	return m.inputs[m.Selected()].Focus()
}

func (m *Model) stopEditing() {
	m.editing = false
	for _, input := range m.inputs {
		input.Blur()
	}
}

func (m *Model) moveSelection(delta int) {
	n := len(models.Providers)
	m.table.SetCursor((m.table.Cursor() + delta + n) % n)
}

func (m *Model) toggleVisibility(provider string) {
	m.visible[provider] = !m.visible[provider]
	if m.visible[provider] {
		m.inputs[provider].EchoMode = textinput.EchoNormal
	} else {
		m.inputs[provider].EchoMode = textinput.EchoPassword
	}
}

func (m *Model) loadStatus() tea.Cmd {
	service := m.service
	return app.Request(opStatus, func(ctx context.Context) (*keysvc.Status, error) {
		return service.LoadStatus(ctx)
	})
}

// handleStatus keeps the last good status on failure; the header shows the
// error next to it.
func (m *Model) handleStatus(status *keysvc.Status, err error) tea.Cmd {
	if err != nil {
		m.loadErr = err
		return app.NotifyError(keysvc.Describe("Load status", err))
	}
	m.loadErr = nil
	m.status = status
	m.updateTableData()
	return nil
}

func (m *Model) test(provider string) tea.Cmd {
	value := m.inputs[provider].Value()
	if strings.TrimSpace(value) == "" {
		return app.NotifyWarning(keysvc.Describe("Test", keysvc.ErrEmptyKey))
	}
	if m.busy != "" {
		return app.NotifyWarning("Wait for the current request to finish")
	}

	m.busy = "Testing " + DisplayName(provider) + " key..."
	service := m.service
	trimmed := strings.TrimSpace(value)
	return tea.Batch(m.spinner.Tick(), app.Request(opTest, func(ctx context.Context) (actionResult, error) {
		return actionResult{Provider: provider, Key: trimmed}, service.Test(ctx, provider, trimmed)
	}))
}

func (m *Model) save(provider string) tea.Cmd {
	value := m.inputs[provider].Value()
	if strings.TrimSpace(value) == "" {
		return app.NotifyWarning(keysvc.Describe("Save", keysvc.ErrEmptyKey))
	}
	if m.busy != "" {
		return app.NotifyWarning("Wait for the current request to finish")
	}

	m.busy = "Saving " + DisplayName(provider) + " key..."
	service := m.service
	return tea.Batch(m.spinner.Tick(), app.Request(opSave, func(ctx context.Context) (actionResult, error) {
		return actionResult{Provider: provider}, service.Save(ctx, provider, value)
	}))
}

func (m *Model) saveAll() tea.Cmd {
	inputs := m.Inputs()
	if len(keysvc.Collect(inputs)) == 0 {
		return app.NotifyWarning(keysvc.Describe("Save", keysvc.ErrNoKeys))
	}
	if m.busy != "" {
		return app.NotifyWarning("Wait for the current request to finish")
	}

	m.busy = "Saving all keys..."
	service := m.service
	return tea.Batch(m.spinner.Tick(), app.Request(opSaveAll, func(ctx context.Context) (actionResult, error) {
		n, err := service.SaveAll(ctx, inputs)
		return actionResult{Saved: n}, err
	}))
}

func (m *Model) handleAction(msg app.ResultMsg[actionResult]) tea.Cmd {
	m.busy = ""
	name := DisplayName(msg.Value.Provider)

	switch msg.Op {
	case opTest:
		if msg.Err != nil {
			return alert("Test", msg.Err)
		}
		m.markConnected(msg.Value.Provider, msg.Value.Key)
		return app.NotifySuccess(name + " key is valid")

	case opSave:
		if msg.Err != nil {
			return alert("Save", msg.Err)
		}
		return tea.Batch(
			app.NotifySuccess(name+" key saved"),
			app.Delayed(keysvc.ReloadDelay, reloadMsg{}),
		)

	case opSaveAll:
		if msg.Err != nil {
			return alert("Save all", msg.Err)
		}
		return tea.Batch(
			app.NotifySuccess(fmt.Sprintf("Saved %d API key(s)", msg.Value.Saved)),
			app.Delayed(keysvc.ReloadDelay, reloadMsg{}),
		)
	}
	return nil
}

// alert maps an action error to a warning for local validation failures and
// to an error otherwise.
func alert(action string, err error) tea.Cmd {
	text := keysvc.Describe(action, err)
	if errors.Is(err, keysvc.ErrEmptyKey) || errors.Is(err, keysvc.ErrNoKeys) {
		return app.NotifyWarning(text)
	}
	return app.NotifyError(text)
}

// markConnected flips one provider to connected after a successful test.
func (m *Model) markConnected(provider, apiKey string) {
	var providers []models.ProviderStatus
	if m.status != nil {
		providers = append(providers, m.status.Providers...)
	}

	found := false
	for i := range providers {
		if providers[i].Provider == provider {
			providers[i].Available = true
			providers[i].Key = apiKey
			found = true
		}
	}
	if !found {
		providers = append(providers, models.ProviderStatus{Provider: provider, Key: apiKey, Available: true})
	}

	status := keysvc.Summarize(providers)
	m.status = &status
	m.updateTableData()
}

// updateTableData rebuilds the status table rows.
func (m *Model) updateTableData() {
	rows := make([]table.Row, 0, len(models.Providers))
	for _, provider := range models.Providers {
		state := "…"
		masked := "-"
		if m.status != nil {
			state = "○ Not connected"
			if p, ok := m.status.Provider(provider); ok {
				if p.Available {
					state = "● Connected"
				}
				if p.Key != "" {
					masked = keysvc.MaskKey(p.Key)
				}
			}
		}
		rows = append(rows, table.Row{DisplayName(provider), state, masked})
	}
	m.table.SetRows(rows)
}

// Selected returns the provider under the cursor.
func (m *Model) Selected() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(models.Providers) {
		return models.Providers[0]
	}
	return models.Providers[i]
}

// Inputs returns the raw value of every key input.
func (m *Model) Inputs() map[string]string {
	out := make(map[string]string, len(m.inputs))
	for provider, input := range m.inputs {
		out[provider] = input.Value()
	}
	return out
}

// Status returns the last loaded provider status.
func (m *Model) Status() *keysvc.Status {
	return m.status
}

// SetSize sets the available size for the keys tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	keyWidth := max(min(width-40, 40), 16)
	m.table.SetColumns([]table.Column{
		{Title: "Provider", Width: 12},
		{Title: "Status", Width: 16},
		{Title: "Key", Width: keyWidth},
	})
	for _, input := range m.inputs {
		input.Width = max(width-30, 20)
	}
}

// Capturing reports whether a key input has focus.
func (m *Model) Capturing() bool {
	return m.editing
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{
			m.keys.Next,
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
			m.keys.Escape,
		}
	}
	return []key.Binding{m.keys.Edit, m.keys.Test, m.keys.Save, m.keys.SaveAll, m.keys.Toggle}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Edit, m.keys.Escape, m.keys.Next, m.keys.Prev},
		{m.keys.Test, m.keys.Save, m.keys.SaveAll},
		{m.keys.Toggle, m.keys.Reload},
	}
}

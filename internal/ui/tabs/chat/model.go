// Package chat provides the conversation tab.
package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/models"
	chatsvc "github.com/routerllm/routerllm-tui/internal/services/chat"
	"github.com/routerllm/routerllm-tui/internal/ui/components"
)

const (
	opSend   = "chat.send"
	opModels = "chat.models"
)

// Client is the part of the router API the chat tab needs.
type Client interface {
	chatsvc.Sender
	Models(ctx context.Context) (models.ModelCatalog, error)
}

// keyMap defines the key bindings specific to the chat tab.
type keyMap struct {
	Focus      key.Binding
	Blur       key.Binding
	Send       key.Binding
	PromptUp   key.Binding
	PromptDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Focus: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i/enter", "write a message"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave input"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		PromptUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev prompt"),
		),
		PromptDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next prompt"),
		),
	}
}

// Model represents the chat tab state.
type Model struct {
	state     *app.State
	session   *chatsvc.Session
	client    Client
	indicator chatsvc.Indicator
	spinner   components.LoadingSpinner
	keys      keyMap
	input     textarea.Model
	viewport  viewport.Model
	width     int
	height    int
	prompt    int
}

// New creates a chat tab bound to one session.
func New(state *app.State, session *chatsvc.Session, client Client) *Model {
	input := textarea.New()
	input.Placeholder = "Type your message..."
	input.ShowLineNumbers = false
	input.CharLimit = 4000
	input.SetHeight(3)
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	return &Model{
		state:     state,
		session:   session,
		client:    client,
		indicator: chatsvc.Indicator{Name: "loading...", Provider: models.ProviderUnknown},
		spinner:   components.NewSpinner("Thinking..."),
		keys:      defaultKeyMap(),
		input:     input,
		viewport:  viewport.New(0, 0),
	}
}

// Init loads the model catalog for the initial indicator.
func (m *Model) Init() tea.Cmd {
	client := m.client
	return app.Request(opModels, func(ctx context.Context) (models.ModelCatalog, error) {
		return client.Models(ctx)
	})
}

// Update handles messages for the chat tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.ResultMsg[*models.ChatResult]:
		if msg.Op == opSend {
			m.handleReply(msg.Value, msg.Err)
		}

	case app.ResultMsg[models.ModelCatalog]:
		if msg.Op == opModels {
			m.handleCatalog(msg.Value, msg.Err)
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		if m.session.State() == chatsvc.AwaitingResponse {
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

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.Blur):
			m.input.Blur()
			return nil
		case key.Matches(msg, m.keys.Send):
			return m.send(m.input.Value())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	empty := len(m.session.Turns()) == 0
	switch {
	case empty && key.Matches(msg, m.keys.PromptUp):
		m.prompt = (m.prompt - 1 + len(chatsvc.QuickPrompts)) % len(chatsvc.QuickPrompts)
		return nil
	case empty && key.Matches(msg, m.keys.PromptDown):
		m.prompt = (m.prompt + 1) % len(chatsvc.QuickPrompts)
		return nil
	case empty && msg.String() == "enter":
		return m.send(chatsvc.QuickPrompts[m.prompt])
	case key.Matches(msg, m.keys.Focus):
		return m.input.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// send starts one turn. Blank input is ignored and a second send while the
// first is pending is refused.
func (m *Model) send(text string) tea.Cmd {
	msg, err := m.session.Begin(text)
	switch {
	case errors.Is(err, chatsvc.ErrEmptyMessage):
		return nil
	case errors.Is(err, chatsvc.ErrBusy):
		return app.NotifyWarning("Waiting for the previous response")
	case err != nil:
		return app.NotifyError(err.Error())
	}

	m.input.Reset()
	m.refreshTranscript()

	client := m.client
	return tea.Batch(
		m.spinner.Tick(),
		app.Request(opSend, func(ctx context.Context) (*models.ChatResult, error) {
			return client.Chat(ctx, msg, "")
		}),
	)
}

func (m *Model) handleReply(result *models.ChatResult, err error) {
	if err != nil {
		m.session.Fail(err)
	} else if m.session.Complete(result) {
		m.indicator = chatsvc.Indicator{
			Name:     result.ModelUsed,
			Provider: chatsvc.ProviderForModel(result.ModelUsed),
		}
	}
	m.refreshTranscript()
}

func (m *Model) handleCatalog(catalog models.ModelCatalog, err error) {
	// A reply may already have set the indicator
	if m.session.Model() != "" {
		return
	}
	m.indicator = chatsvc.InitialIndicator(catalog, err)
	if m.indicator.Provider != chatsvc.IndicatorNone && m.indicator.Provider != chatsvc.IndicatorError {
		m.session.SetModel(m.indicator.Name)
	}
}

// SetSize sets the available size for the chat tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	m.input.SetWidth(max(width-8, 20))
	m.viewport.Width = max(width-4, 20)
	// header, totals, input box and footer
	m.viewport.Height = max(height-11, 3)
	m.refreshTranscript()
}

// Capturing reports whether the message input has focus.
func (m *Model) Capturing() bool {
	return m.input.Focused()
}

// Indicator returns what the model indicator shows.
func (m *Model) Indicator() chatsvc.Indicator {
	return m.indicator
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Focus, m.keys.Send, m.keys.Blur, m.keys.PromptDown}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Focus, m.keys.Send, m.keys.Blur},
		{m.keys.PromptUp, m.keys.PromptDown},
	}
}

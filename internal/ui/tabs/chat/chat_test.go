package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/models"
	chatsvc "github.com/routerllm/routerllm-tui/internal/services/chat"
)

type fakeClient struct {
	result  *models.ChatResult
	err     error
	catalog models.ModelCatalog
	catErr  error
	mu      sync.Mutex
	sent    []string
	calls   int
}

func (f *fakeClient) Chat(_ context.Context, message, _ string) (*models.ChatResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return f.result, f.err
}

func (f *fakeClient) Models(_ context.Context) (models.ModelCatalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.catalog, f.catErr
}

func newTestModel(client *fakeClient) *Model {
	m := New(app.NewState(), chatsvc.NewSession(), client)
	m.SetSize(100, 30)
	return m
}

// collect runs cmd and flattens any batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SendSuccess(t *testing.T) {
	client := &fakeClient{result: &models.ChatResult{
		Response:     "Hi there",
		ModelUsed:    "claude-3-haiku",
		Reasoning:    "short greeting",
		CostEstimate: 0.00042,
		ResponseTime: 1.5,
		TokensUsed:   120,
	}}
	m := newTestModel(client)

	m.Update(keyRunes("i"))
	if !m.Capturing() {
		t.Fatal("expected input to capture keys after focus")
	}

	m.input.SetValue("  hello  ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.session.State() != chatsvc.AwaitingResponse {
		t.Fatalf("state = %v, want awaiting response", m.session.State())
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	result, ok := findMsg[app.ResultMsg[*models.ChatResult]](collect(cmd))
	if !ok {
		t.Fatal("expected a chat result message")
	}
	if client.sent[0] != "hello" {
		t.Errorf("sent %q, want trimmed text", client.sent[0])
	}

	m.Update(result)

	if m.session.State() != chatsvc.Idle {
		t.Errorf("state = %v, want idle", m.session.State())
	}
	totals := m.session.Totals()
	if totals.MessageCount != 1 || totals.TotalTokens != 120 {
		t.Errorf("unexpected totals: %+v", totals)
	}
	if m.Indicator().Name != "claude-3-haiku" || m.Indicator().Provider != models.ProviderAnthropic {
		t.Errorf("unexpected indicator: %+v", m.Indicator())
	}

	view := m.View()
	for _, want := range []string{"Hi there", "$0.000420", "120 tokens"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_SendEmptyIgnored(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	m.Update(keyRunes("i"))

	m.input.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		if msgs := collect(cmd); len(msgs) > 0 {
			if _, ok := findMsg[app.ResultMsg[*models.ChatResult]](msgs); ok {
				t.Error("blank input should not send")
			}
		}
	}
	if len(m.session.Turns()) != 0 {
		t.Errorf("transcript should stay empty, got %d turns", len(m.session.Turns()))
	}
}

func TestModel_SendWhileBusy(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	m.Update(keyRunes("i"))

	m.input.SetValue("first")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.input.SetValue("second")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	notif, ok := findMsg[app.AddNotificationMsg](collect(cmd))
	if !ok {
		t.Fatal("expected a warning notification")
	}
	if notif.Type != app.NotificationWarning {
		t.Errorf("notification type = %v, want warning", notif.Type)
	}
	if got := m.session.Totals().MessageCount; got != 1 {
		t.Errorf("MessageCount = %d, want 1", got)
	}
}

func TestModel_ReplyError(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	m := newTestModel(client)
	m.Update(keyRunes("i"))
	m.input.SetValue("hello")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	result, ok := findMsg[app.ResultMsg[*models.ChatResult]](collect(cmd))
	if !ok {
		t.Fatal("expected a chat result message")
	}
	m.Update(result)

	turns := m.session.Turns()
	if len(turns) != 2 || !turns[1].IsError {
		t.Fatalf("expected an error turn, got %+v", turns)
	}
	if m.session.Totals().TotalCost != 0 {
		t.Error("failed turns must not change cost")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("view should show the error text")
	}
}

func TestModel_Catalog(t *testing.T) {
	tests := []struct {
		name     string
		catalog  models.ModelCatalog
		err      error
		wantName string
		wantProv string
	}{
		{
			name: "first available",
			catalog: models.ModelCatalog{
				"gpt-4o":        {Provider: models.ProviderOpenAI, Available: true},
				"claude-3-opus": {Provider: models.ProviderAnthropic, Available: false},
			},
			wantName: "gpt-4o",
			wantProv: models.ProviderOpenAI,
		},
		{
			name:     "none available",
			catalog:  models.ModelCatalog{"gpt-4o": {Available: false}},
			wantName: chatsvc.NoModelAvailable,
			wantProv: chatsvc.IndicatorNone,
		},
		{
			name:     "load failure",
			err:      errors.New("boom"),
			wantName: chatsvc.ErrorLoading,
			wantProv: chatsvc.IndicatorError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{catalog: tt.catalog, catErr: tt.err}
			m := newTestModel(client)

			msgs := collect(m.Init())
			result, ok := findMsg[app.ResultMsg[models.ModelCatalog]](msgs)
			if !ok {
				t.Fatal("Init should request the catalog")
			}
			m.Update(result)

			got := m.Indicator()
			if got.Name != tt.wantName || got.Provider != tt.wantProv {
				t.Errorf("indicator = %+v, want %s/%s", got, tt.wantName, tt.wantProv)
			}
		})
	}
}

func TestModel_CatalogAfterReply(t *testing.T) {
	m := newTestModel(&fakeClient{})
	m.session.SetModel("gemini-pro")
	m.indicator = chatsvc.Indicator{Name: "gemini-pro", Provider: models.ProviderGoogle}

	m.Update(app.ResultMsg[models.ModelCatalog]{
		Op:    opModels,
		Value: models.ModelCatalog{"gpt-4o": {Available: true}},
	})

	if m.Indicator().Name != "gemini-pro" {
		t.Errorf("catalog should not override a model that already answered, got %q", m.Indicator().Name)
	}
}

func TestModel_QuickPrompts(t *testing.T) {
	client := &fakeClient{result: &models.ChatResult{Response: "ok"}}
	m := newTestModel(client)

	if !strings.Contains(m.View(), chatsvc.QuickPrompts[0]) {
		t.Error("empty transcript should list quick prompts")
	}

	m.Update(keyRunes("j"))
	if m.prompt != 1 {
		t.Errorf("prompt = %d, want 1", m.prompt)
	}
	m.Update(keyRunes("k"))
	m.Update(keyRunes("k"))
	if m.prompt != len(chatsvc.QuickPrompts)-1 {
		t.Errorf("prompt should wrap, got %d", m.prompt)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	collect(cmd)

	if len(client.sent) != 1 || client.sent[0] != chatsvc.QuickPrompts[len(chatsvc.QuickPrompts)-1] {
		t.Errorf("unexpected sent messages: %v", client.sent)
	}
	if m.Capturing() {
		t.Error("sending a quick prompt should not focus the input")
	}
}

func TestModel_EscapeReleasesInput(t *testing.T) {
	m := newTestModel(&fakeClient{})
	m.Update(keyRunes("i"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.Capturing() {
		t.Error("esc should release the input")
	}
}

func TestModel_Help(t *testing.T) {
	m := newTestModel(&fakeClient{})
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp is empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp is empty")
	}
}

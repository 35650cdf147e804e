package keys

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/backend"
	"github.com/routerllm/routerllm-tui/internal/models"
	keysvc "github.com/routerllm/routerllm-tui/internal/services/keys"
)

type fakeClient struct {
	statuses []models.ProviderStatus
	err      error
	savedAll map[string]string
	calls    []string
	lastKey  string
}

func (f *fakeClient) ProviderStatus(context.Context) ([]models.ProviderStatus, error) {
	f.calls = append(f.calls, "status")
	return f.statuses, nil
}

func (f *fakeClient) TestKey(_ context.Context, provider, key string) error {
	f.calls = append(f.calls, "test:"+provider)
	f.lastKey = key
	return f.err
}

func (f *fakeClient) SaveKey(_ context.Context, provider, key string) error {
	f.calls = append(f.calls, "save:"+provider)
	f.lastKey = key
	return f.err
}

func (f *fakeClient) SaveAllKeys(_ context.Context, keys map[string]string) (int, error) {
	f.calls = append(f.calls, "save-all")
	f.savedAll = keys
	if f.err != nil {
		return 0, f.err
	}
	return len(keys), nil
}

func defaultStatuses() []models.ProviderStatus {
	return []models.ProviderStatus{
		{Provider: models.ProviderOpenAI, Available: false},
		{Provider: models.ProviderAnthropic, Available: true, Key: "sk-ant-REDACTED"},
		{Provider: models.ProviderGoogle, Available: false},
	}
}

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

// newLoadedModel returns a tab whose initial status load has completed.
func newLoadedModel(t *testing.T, client *fakeClient) *Model {
	t.Helper()
	m := New(app.NewState(), keysvc.New(client))
	m.SetSize(120, 40)

	result, ok := findMsg[app.ResultMsg[*keysvc.Status]](collect(m.Init()))
	if !ok {
		t.Fatal("Init should load provider status")
	}
	m.Update(result)
	return m
}

func TestModel_LoadStatus(t *testing.T) {
	m := newLoadedModel(t, &fakeClient{statuses: defaultStatuses()})

	status := m.Status()
	if status == nil {
		t.Fatal("status not loaded")
	}
	if status.Aggregate != models.PartiallyConnected {
		t.Errorf("Aggregate = %v, want partial", status.Aggregate)
	}

	view := m.View()
	for _, want := range []string{"API Keys", "Partially connected (1/3)", "sk-ant-a...9876", "OpenAI", "Google"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_EmptyKeyRejectedLocally(t *testing.T) {
	client := &fakeClient{statuses: defaultStatuses()}
	m := newLoadedModel(t, client)
	client.calls = nil

	for _, k := range []string{"x", "s"} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		notif, ok := findMsg[app.AddNotificationMsg](collect(cmd))
		if !ok || notif.Type != app.NotificationWarning {
			t.Errorf("%s: expected a warning, got %+v", k, notif)
		}
	}

	if len(client.calls) != 0 {
		t.Errorf("no request expected, got %v", client.calls)
	}
}

func TestModel_TestMarksConnected(t *testing.T) {
	client := &fakeClient{statuses: defaultStatuses()}
	m := newLoadedModel(t, client)

	m.inputs[models.ProviderOpenAI].SetValue("  sk-proj-1234567890abcd  ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	result, ok := findMsg[app.ResultMsg[actionResult]](collect(cmd))
	if !ok {
		t.Fatal("expected an action result")
	}
	if client.lastKey != "sk-proj-1234567890abcd" {
		t.Errorf("tested key %q, want trimmed key", client.lastKey)
	}

	_, cmd = m.Update(result)
	notif, _ := findMsg[app.AddNotificationMsg](collect(cmd))
	if notif.Type != app.NotificationSuccess {
		t.Errorf("expected success notification, got %+v", notif)
	}

	p, _ := m.Status().Provider(models.ProviderOpenAI)
	if !p.Available || p.Key != "sk-proj-1234567890abcd" {
		t.Errorf("provider not flipped to connected: %+v", p)
	}
	if m.Status().Connected != 2 {
		t.Errorf("Connected = %d, want 2", m.Status().Connected)
	}
}

func TestModel_EnterSavesAndReloads(t *testing.T) {
	client := &fakeClient{statuses: defaultStatuses()}
	m := newLoadedModel(t, client)

	// Select google and edit it
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.Selected() != models.ProviderGoogle {
		t.Fatalf("Selected() = %q, want google", m.Selected())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Capturing() {
		t.Fatal("enter should start editing")
	}
	m.inputs[models.ProviderGoogle].SetValue("AIzaSyExampleKey1234")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Capturing() {
		t.Error("saving should stop editing")
	}

	result, ok := findMsg[app.ResultMsg[actionResult]](collect(cmd))
	if !ok {
		t.Fatal("expected an action result")
	}
	if client.calls[len(client.calls)-1] != "save:"+models.ProviderGoogle {
		t.Errorf("unexpected calls: %v", client.calls)
	}

	_, cmd = m.Update(result)
	msgs := collect(cmd)
	if _, ok := findMsg[reloadMsg](msgs); !ok {
		t.Error("a successful save should schedule a status reload")
	}

	_, cmd = m.Update(reloadMsg{})
	if _, ok := findMsg[app.ResultMsg[*keysvc.Status]](collect(cmd)); !ok {
		t.Error("reload should fetch provider status")
	}
}

func TestModel_SaveAll(t *testing.T) {
	client := &fakeClient{statuses: defaultStatuses()}
	m := newLoadedModel(t, client)
	client.calls = nil

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if notif, _ := findMsg[app.AddNotificationMsg](collect(cmd)); notif.Type != app.NotificationWarning {
		t.Errorf("save all with no keys should warn, got %+v", notif)
	}
	if len(client.calls) != 0 {
		t.Fatalf("no request expected, got %v", client.calls)
	}

	m.inputs[models.ProviderOpenAI].SetValue("sk-proj-aaaaaaaaaaaa")
	m.inputs[models.ProviderGoogle].SetValue("AIzaSyBBBBBBBBBBBB")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	result, ok := findMsg[app.ResultMsg[actionResult]](collect(cmd))
	if !ok {
		t.Fatal("expected an action result")
	}
	if len(client.savedAll) != 2 {
		t.Errorf("saved %d keys, want 2", len(client.savedAll))
	}

	_, cmd = m.Update(result)
	notif, _ := findMsg[app.AddNotificationMsg](collect(cmd))
	if !strings.Contains(notif.Message, "Saved 2") {
		t.Errorf("unexpected message %q", notif.Message)
	}
}

func TestModel_SaveRejected(t *testing.T) {
	client := &fakeClient{
		statuses: defaultStatuses(),
		err:      &backend.RejectedError{Reason: "invalid key"},
	}
	m := newLoadedModel(t, client)
	m.inputs[models.ProviderOpenAI].SetValue("sk-bad-key-000000")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	result, _ := findMsg[app.ResultMsg[actionResult]](collect(cmd))

	_, cmd = m.Update(result)
	msgs := collect(cmd)
	notif, ok := findMsg[app.AddNotificationMsg](msgs)
	if !ok || notif.Type != app.NotificationError {
		t.Errorf("expected an error notification, got %+v", notif)
	}
	if !strings.Contains(notif.Message, "invalid key") {
		t.Errorf("message %q should carry the router's reason", notif.Message)
	}
	if _, ok := findMsg[reloadMsg](msgs); ok {
		t.Error("failed save must not reload")
	}
}

func TestModel_ToggleVisibility(t *testing.T) {
	m := newLoadedModel(t, &fakeClient{statuses: defaultStatuses()})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	if m.inputs[models.ProviderOpenAI].EchoMode != textinput.EchoNormal {
		t.Error("v should reveal the selected key")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	if m.inputs[models.ProviderOpenAI].EchoMode != textinput.EchoPassword {
		t.Error("v again should hide the key")
	}
}

func TestModel_StatusError(t *testing.T) {
	m := New(app.NewState(), keysvc.New(&fakeClient{}))
	m.Update(app.ResultMsg[*keysvc.Status]{Op: opStatus, Err: errors.New("connection refused")})

	if !strings.Contains(m.View(), "connection refused") {
		t.Error("view should show the load error")
	}
}

func TestModel_ReloadErrorAfterLoad(t *testing.T) {
	m := newLoadedModel(t, &fakeClient{statuses: defaultStatuses()})

	_, cmd := m.Update(app.ResultMsg[*keysvc.Status]{Op: opStatus, Err: errors.New("connection refused")})
	notif, ok := findMsg[app.AddNotificationMsg](collect(cmd))
	if !ok || notif.Type != app.NotificationError {
		t.Fatalf("expected an error notification, got %+v", notif)
	}
	if !strings.Contains(notif.Message, "connection refused") {
		t.Errorf("message %q should carry the cause", notif.Message)
	}

	view := m.View()
	if !strings.Contains(view, "connection refused") {
		t.Error("view should show the reload error")
	}
	if m.Status() == nil || m.Status().Aggregate != models.PartiallyConnected {
		t.Error("last good status should be kept")
	}

	m.Update(app.ResultMsg[*keysvc.Status]{Op: opStatus, Value: m.Status()})
	if strings.Contains(m.View(), "connection refused") {
		t.Error("a successful reload should clear the error")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), keysvc.New(&fakeClient{}))
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

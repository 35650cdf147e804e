package info

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/routerllm/routerllm-tui/internal/app"
	"github.com/routerllm/routerllm-tui/internal/config"
	"github.com/routerllm/routerllm-tui/internal/models"
	"github.com/routerllm/routerllm-tui/internal/version"
)

type fakeSource struct {
	info  *models.ServerInfo
	err   error
	calls int
}

func (f *fakeSource) Info(context.Context) (*models.ServerInfo, error) {
	f.calls++
	return f.info, f.err
}

type fakeHistory struct {
	count int
}

func (f fakeHistory) CountSnapshots() (int, error) {
	return f.count, nil
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

func testConfig() *config.Config {
	return &config.Config{
		RouterURL:            "http://router.local:8000",
		PollInterval:         5 * time.Second,
		RequestTimeout:       30 * time.Second,
		DatabasePath:         "/tmp/history.db",
		PreferencesPath:      "/tmp/preferences.json",
		LogPath:              "/tmp/routerllm.log",
		ChatUserID:           "home_user",
		DesktopNotifications: true,
	}
}

func setVersion(t *testing.T) {
	t.Helper()
	version.Version = "1.2.3"
	version.Commit = "abc123"
	version.Date = "2026-01-01"
	t.Cleanup(version.Reset)
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), &config.Config{}, nil, nil, "")
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Capturing() {
		t.Error("info tab never captures keys")
	}
}

func TestModel_InitLoadsServerAndHistory(t *testing.T) {
	setVersion(t)
	source := &fakeSource{info: &models.ServerInfo{
		Status:             "healthy",
		Version:            "0.9.0",
		DefaultModel:       "gpt-4o-mini",
		AvailableProviders: []string{"openai", "google"},
		ModelsConfigured:   3,
		TotalModels:        7,
	}}
	m := New(app.NewState(), testConfig(), source, fakeHistory{count: 12}, "session-1")
	m.SetSize(100, 80)

	for _, msg := range collect(m.Init()) {
		m.Update(msg)
	}

	view := m.View()
	for _, want := range []string{
		"http://router.local:8000",
		"5s",
		"/tmp/history.db",
		"healthy",
		"gpt-4o-mini",
		"3 configured / 7 total",
		"openai, google",
		"session-1",
		"1.2.3",
		"Snapshots recorded: 12",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ServerError(t *testing.T) {
	setVersion(t)
	m := New(app.NewState(), testConfig(), &fakeSource{err: errors.New("connection refused")}, nil, "")
	m.SetSize(100, 80)

	for _, msg := range collect(m.Init()) {
		m.Update(msg)
	}

	if !strings.Contains(m.View(), "connection refused") {
		t.Error("view should show the server error")
	}
}

func TestModel_Reload(t *testing.T) {
	source := &fakeSource{info: &models.ServerInfo{Status: "ok"}}
	m := New(app.NewState(), testConfig(), source, nil, "")

	collect(m.Init())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	collect(cmd)
	_, cmd = m.Update(app.RefreshMsg{})
	collect(cmd)

	if source.calls != 3 {
		t.Errorf("Info called %d times, want 3", source.calls)
	}
}

func TestModel_NilConfig(t *testing.T) {
	setVersion(t)
	m := New(app.NewState(), nil, nil, nil, "")
	m.SetSize(80, 60)

	if !strings.Contains(m.View(), "Configuration not loaded") {
		t.Error("expected placeholder for missing configuration")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), &config.Config{}, nil, nil, "")
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

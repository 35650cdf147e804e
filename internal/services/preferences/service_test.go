package preferences

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/routerllm/routerllm-tui/internal/models"
)

func newTestService(t *testing.T, dark bool) (*Service, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "preferences.json")

	svc, err := New(path, func() bool { return dark })
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})

	// Drain the initial load event
	<-svc.Events()

	return svc, path
}

func TestNew_FallsBackToDetection(t *testing.T) {
	tests := []struct {
		name string
		dark bool
		want models.Theme
	}{
		{"DarkTerminal", true, models.ThemeDark},
		{"LightTerminal", false, models.ThemeLight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, path := newTestService(t, tt.dark)

			if got := svc.Theme(); got != tt.want {
				t.Errorf("Theme() = %q, want %q", got, tt.want)
			}
			if _, ok := svc.Stored(); ok {
				t.Error("nothing should be stored yet")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("file should not be created until a theme is set")
			}
		})
	}
}

func TestNew_NilDetectorDefaultsDark(t *testing.T) {
	svc, err := New(filepath.Join(t.TempDir(), "p.json"), nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer svc.Close()

	if svc.Theme() != models.ThemeDark {
		t.Errorf("Theme() = %q, want dark", svc.Theme())
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Error("New(\"\") should fail")
	}
}

func TestNew_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	if err := os.WriteFile(path, []byte(`{"theme":"light","version":1}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	svc, err := New(path, func() bool { return true })
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer svc.Close()

	if svc.Theme() != models.ThemeLight {
		t.Errorf("Theme() = %q, want persisted light over detected dark", svc.Theme())
	}
}

func TestNew_CorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	svc, err := New(path, func() bool { return false })
	if err != nil {
		t.Fatalf("New() should tolerate a corrupt file: %v", err)
	}
	defer svc.Close()

	if svc.Theme() != models.ThemeLight {
		t.Errorf("Theme() = %q, want detected light", svc.Theme())
	}
}

func TestSetTheme_Persists(t *testing.T) {
	svc, path := newTestService(t, true)

	if err := svc.SetTheme(models.ThemeLight); err != nil {
		t.Fatalf("SetTheme() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if f.Theme != models.ThemeLight {
		t.Errorf("persisted theme = %q, want light", f.Theme)
	}
	if f.Version != 1 {
		t.Errorf("persisted version = %d, want 1", f.Version)
	}

	if err := svc.SetTheme("sepia"); err == nil {
		t.Error("SetTheme should reject unknown themes")
	}
}

func TestToggle(t *testing.T) {
	svc, _ := newTestService(t, true)

	got, err := svc.Toggle()
	if err != nil {
		t.Fatalf("Toggle() failed: %v", err)
	}
	if got != models.ThemeLight {
		t.Errorf("Toggle() = %q, want light", got)
	}

	got, err = svc.Toggle()
	if err != nil {
		t.Fatalf("Toggle() failed: %v", err)
	}
	if got != models.ThemeDark {
		t.Errorf("Toggle() = %q, want dark", got)
	}
}

func TestExternalEditEmitsThemeChanged(t *testing.T) {
	svc, path := newTestService(t, true)

	if err := svc.SetTheme(models.ThemeDark); err != nil {
		t.Fatalf("SetTheme() failed: %v", err)
	}
	// Let the watcher settle on our own write
	time.Sleep(300 * time.Millisecond)
	for len(svc.Events()) > 0 {
		<-svc.Events()
	}

	if err := os.WriteFile(path, []byte(`{"theme":"light"}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-svc.Events():
			if ev.Type == EventThemeChanged {
				if ev.Theme != models.ThemeLight {
					t.Errorf("event theme = %q, want light", ev.Theme)
				}
				if svc.Theme() != models.ThemeLight {
					t.Errorf("Theme() = %q after reload, want light", svc.Theme())
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for theme change event")
		}
	}
}

func TestClose_Idempotent(t *testing.T) {
	svc, _ := newTestService(t, true)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"

	"github.com/routerllm/routerllm-tui/internal/backend"
	"github.com/routerllm/routerllm-tui/internal/config"
	"github.com/routerllm/routerllm-tui/internal/db"
	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
	"github.com/routerllm/routerllm-tui/internal/services/chat"
	"github.com/routerllm/routerllm-tui/internal/services/keys"
	"github.com/routerllm/routerllm-tui/internal/services/poller"
	"github.com/routerllm/routerllm-tui/internal/services/preferences"
)

const (
	// historyPoints is how many snapshots the cost chart plots.
	historyPoints = 60
	// historyKeep is how many snapshots are retained on disk.
	historyKeep = 5000
	// pruneEvery is how many inserts happen between prunes.
	pruneEvery = 100
)

type (
	// DashboardUpdatedEvent is emitted after every poll cycle.
	DashboardUpdatedEvent struct {
		Result       *poller.CycleResult
		CostHistory  []float64
		// UsageHistory is the request count series of the most used model.
		UsageHistory []float64
	}

	// ConnectivityEvent is emitted when the router goes offline or comes back.
	ConnectivityEvent struct {
		Err    error
		Online bool
	}

	// ThemeChangedEvent is emitted when the theme preference changes on disk.
	ThemeChangedEvent struct {
		Theme models.Theme
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DashboardUpdatedEvent) isServiceEvent() {}
func (ConnectivityEvent) isServiceEvent()     {}
func (ThemeChangedEvent) isServiceEvent()     {}
func (ErrorEvent) isServiceEvent()            {}

// Option configures a Manager.
type Option func(*Manager)

// WithThemeDetector sets how the terminal background is detected when no
// theme preference is stored.
func WithThemeDetector(detectDark func() bool) Option {
	return func(m *Manager) {
		m.detectDark = detectDark
	}
}

// WithNotifier replaces the desktop notification function.
func WithNotifier(notify func(title, body string) error) Option {
	return func(m *Manager) {
		m.notify = notify
	}
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	client      *backend.Client
	poller      *poller.Service
	preferences *preferences.Service
	keys        *keys.Service
	database    *db.DB
	detectDark  func() bool
	notify      func(title, body string) error
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	done        chan struct{}
	subscribers []chan<- ServiceEvent
	online      *bool
	sessionID   string
	inserts     int
	pruned      bool
	notifyOn    bool
	closeOnce   sync.Once
}

func desktopNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// NewManager creates a new service manager. Polling starts with Start.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		sessionID: uuid.NewString(),
		notify:    desktopNotify,
		notifyOn:  cfg.DesktopNotifications,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.client = backend.New(cfg.RouterURL, cfg.RequestTimeout, backend.WithUserID(cfg.ChatUserID))
	m.keys = keys.New(m.client)

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.preferences, err = preferences.New(cfg.PreferencesPath, m.detectDark)
	if err != nil {
		_ = m.database.Close()
		return nil, fmt.Errorf("failed to initialize preferences: %w", err)
	}

	m.poller = poller.New(m.client, nil, poller.Config{Interval: cfg.PollInterval})

	go m.routeEvents()

	return m, nil
}

// Start begins polling the router.
func (m *Manager) Start() {
	m.poller.Start()
}

// routeEvents routes events from individual services to subscribers. done
// is closed once it returns.
func (m *Manager) routeEvents() {
	defer close(m.done)
	for {
		select {
		case event := <-m.poller.Events():
			m.handlePollerEvent(event)

		case event := <-m.preferences.Events():
			m.handlePreferencesEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handlePollerEvent(event poller.Event) {
	result := event.Result
	if result == nil {
		return
	}

	m.trackConnectivity(result)

	if result.Stats != nil {
		m.recordSnapshot(result)
	}

	history, err := m.database.CostSeries(historyPoints)
	if err != nil {
		logger.Warn("failed to load cost history", "error", err)
	}

	var usage []float64
	if result.Stats != nil && result.Stats.MostUsedModel != "" {
		usage, err = m.database.ModelUsageSeries(result.Stats.MostUsedModel, historyPoints)
		if err != nil {
			logger.Warn("failed to load model usage history", "model", result.Stats.MostUsedModel, "error", err)
		}
	}

	m.broadcast(DashboardUpdatedEvent{
		Result:       result,
		CostHistory:  history,
		UsageHistory: usage,
	})
}

func (m *Manager) recordSnapshot(result *poller.CycleResult) {
	active := 0
	if result.Models != nil {
		active = result.Models.ActiveCount()
	}

	if _, err := m.database.InsertSnapshot(m.sessionID, result.Stats, active); err != nil {
		logger.Error("failed to record snapshot", "error", err)
		return
	}

	m.inserts++
	if m.inserts%pruneEvery == 0 {
		if n, err := m.database.PruneSnapshots(historyKeep); err != nil {
			logger.Warn("failed to prune snapshots", "error", err)
		} else if n > 0 {
			logger.Debug("pruned snapshots", "deleted", n)
			m.mu.Lock()
			m.pruned = true
			m.mu.Unlock()
		}
	}
}

// trackConnectivity raises a notification when the router changes between
// online and offline. The first result only sets the baseline.
func (m *Manager) trackConnectivity(result *poller.CycleResult) {
	online := result.Online()

	m.mu.Lock()
	previous := m.online
	m.online = &online
	m.mu.Unlock()

	if previous == nil || *previous == online {
		return
	}

	m.broadcast(ConnectivityEvent{Online: online, Err: result.StatsErr})

	if !m.notifyOn || m.notify == nil {
		return
	}

	title, body := "RouterLLM is back online", m.client.BaseURL()
	if !online {
		title = "RouterLLM is offline"
		body = fmt.Sprintf("%s: %v", m.client.BaseURL(), result.StatsErr)
	}
	if err := m.notify(title, body); err != nil {
		logger.Warn("desktop notification failed", "error", err)
	}
}

func (m *Manager) handlePreferencesEvent(event preferences.Event) {
	switch event.Type {
	case preferences.EventThemeChanged:
		m.broadcast(ThemeChangedEvent{Theme: event.Theme})

	case preferences.EventError:
		m.broadcast(ErrorEvent{
			Service: "preferences",
			Error:   event.Error,
		})
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd that waits for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Online reports whether the last poll reached the router, and whether any
// poll has completed yet.
func (m *Manager) Online() (online, known bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.online == nil {
		return false, false
	}
	return *m.online, true
}

// Client returns the router client.
func (m *Manager) Client() *backend.Client {
	return m.client
}

// Poller returns the dashboard poller.
func (m *Manager) Poller() *poller.Service {
	return m.poller
}

// Preferences returns the preferences service.
func (m *Manager) Preferences() *preferences.Service {
	return m.preferences
}

// Keys returns the key management service.
func (m *Manager) Keys() *keys.Service {
	return m.keys
}

// NewChatSession creates a fresh conversation.
func (m *Manager) NewChatSession() *chat.Session {
	return chat.NewSession()
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// SessionID identifies this process's rows in the snapshot history.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)
		// The router may be mid-event and still using the database.
		<-m.done

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		pruned := m.pruned
		m.mu.Unlock()

		if err := m.poller.Close(); err != nil {
			errs = append(errs, err)
		}

		if err := m.preferences.Close(); err != nil {
			errs = append(errs, err)
		}

		if m.database != nil {
			if pruned {
				if err := m.database.Vacuum(); err != nil {
					logger.Warn("failed to vacuum database", "error", err)
				}
			}
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

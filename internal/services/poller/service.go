// Package poller periodically fetches router state for the dashboard.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
)

// Fetcher is the subset of the router client the poller needs.
type Fetcher interface {
	Stats(ctx context.Context) (*models.StatsSnapshot, error)
	Models(ctx context.Context) (models.ModelCatalog, error)
}

// EventType defines the type of poller event.
type EventType int

const (
	// EventCycleCompleted indicates a poll cycle finished with every part fetched.
	EventCycleCompleted EventType = iota
	// EventCyclePartial indicates a poll cycle finished with at least one failed part.
	EventCyclePartial
)

// Event represents a poller service event.
type Event struct {
	Result *CycleResult
	Type   EventType
}

// CycleResult holds everything one poll cycle fetched. A failed part leaves
// its value nil and sets the matching error.
type CycleResult struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Stats       *models.StatsSnapshot
	Models      models.ModelCatalog
	StatsErr    error
	ModelsErr   error
	ActivityErr error
	Activities  []models.Activity
	Seq         int64
}

// Online reports whether the router answered the stats request.
func (r *CycleResult) Online() bool {
	return r != nil && r.StatsErr == nil
}

// Err returns the first part error, if any.
func (r *CycleResult) Err() error {
	for _, err := range []error{r.StatsErr, r.ModelsErr, r.ActivityErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Config holds configuration for the poller.
type Config struct {
	Interval time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Second}
}

// tickerFunc returns a tick channel and its stop function.
type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Service polls the router on a fixed interval. Every tick starts a new
// cycle, even if the previous one has not finished.
type Service struct {
	fetcher   Fetcher
	activity  ActivitySource
	latest    *CycleResult
	eventChan chan Event
	stopChan  chan struct{}
	newTicker tickerFunc
	config    Config
	seq       atomic.Int64
	cycles    atomic.Int64
	mu        sync.RWMutex
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a poller. Polling begins on Start. A nil activity source
// synthesizes the feed from the fetcher's stats.
func New(fetcher Fetcher, activity ActivitySource, config Config) *Service {
	if config.Interval <= 0 {
		config = DefaultConfig()
	}
	if activity == nil {
		activity = StatsActivity{Fetcher: fetcher}
	}

	return &Service{
		fetcher:   fetcher,
		activity:  activity,
		config:    config,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		newTicker: realTicker,
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Interval returns the polling interval.
func (s *Service) Interval() time.Duration {
	return s.config.Interval
}

// Start runs an initial cycle and then one cycle per tick until Close.
// Calling Start more than once has no effect.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		ticks, stop := s.newTicker(s.config.Interval)
		go s.poll(ticks, stop)
	})
}

func (s *Service) poll(ticks <-chan time.Time, stop func()) {
	defer stop()

	// Initial load
	go s.RunCycle(context.Background())

	for {
		select {
		case <-ticks:
			go s.RunCycle(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

// Refresh starts one cycle outside the regular schedule.
func (s *Service) Refresh() {
	go s.RunCycle(context.Background())
}

// RunCycle fetches stats, models and activity concurrently and publishes the
// result. Each part fails independently.
func (s *Service) RunCycle(ctx context.Context) *CycleResult {
	s.cycles.Add(1)
	result := &CycleResult{
		Seq:       s.seq.Add(1),
		StartedAt: time.Now(),
	}

	var g errgroup.Group

	g.Go(func() error {
		stats, err := s.fetcher.Stats(ctx)
		if err != nil {
			result.StatsErr = fmt.Errorf("stats: %w", err)
			return result.StatsErr
		}
		result.Stats = stats
		return nil
	})

	g.Go(func() error {
		catalog, err := s.fetcher.Models(ctx)
		if err != nil {
			result.ModelsErr = fmt.Errorf("models: %w", err)
			return result.ModelsErr
		}
		result.Models = catalog
		return nil
	})

	g.Go(func() error {
		activities, err := s.activity.Activities(ctx)
		if err != nil {
			result.ActivityErr = fmt.Errorf("activity: %w", err)
			return result.ActivityErr
		}
		result.Activities = Cap(activities)
		return nil
	})

	eventType := EventCycleCompleted
	if err := g.Wait(); err != nil {
		eventType = EventCyclePartial
		for _, partErr := range []error{result.StatsErr, result.ModelsErr, result.ActivityErr} {
			if partErr != nil {
				logger.Warn("poll cycle part failed", "seq", result.Seq, "error", partErr)
			}
		}
	}
	result.FinishedAt = time.Now()

	s.mu.Lock()
	if s.latest == nil || result.Seq > s.latest.Seq {
		s.latest = result
	}
	s.mu.Unlock()

	s.sendEvent(Event{Type: eventType, Result: result})
	return result
}

// Latest returns the most recently started cycle that has finished.
func (s *Service) Latest() *CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Cycles returns how many cycles have started.
func (s *Service) Cycles() int64 {
	return s.cycles.Load()
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the ticker. Cycles already in flight run to completion.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	return nil
}

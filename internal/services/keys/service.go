// Package keys implements provider API key management against the router.
package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/routerllm/routerllm-tui/internal/backend"
	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
)

// ReloadDelay is how long to wait after a save before reloading status, so
// the router has picked the new key up.
const ReloadDelay = time.Second

var (
	// ErrEmptyKey is returned when a single key operation gets a blank key.
	ErrEmptyKey = errors.New("API key is empty")
	// ErrNoKeys is returned when save-all has nothing to send.
	ErrNoKeys = errors.New("no API keys to save")
)

// Client is the subset of the router client used for key management.
type Client interface {
	ProviderStatus(ctx context.Context) ([]models.ProviderStatus, error)
	TestKey(ctx context.Context, provider, key string) error
	SaveKey(ctx context.Context, provider, key string) error
	SaveAllKeys(ctx context.Context, keys map[string]string) (int, error)
}

// Status is the per-provider key state plus its aggregate.
type Status struct {
	Providers []models.ProviderStatus
	Connected int
	Total     int
	Aggregate models.AggregateStatus
}

// Label returns the aggregate status line.
func (s Status) Label() string {
	return s.Aggregate.Label(s.Connected, s.Total)
}

// Provider returns the status of one provider.
func (s Status) Provider(name string) (models.ProviderStatus, bool) {
	for _, p := range s.Providers {
		if p.Provider == name {
			return p, true
		}
	}
	return models.ProviderStatus{}, false
}

// Summarize counts connected providers and classifies the result.
func Summarize(providers []models.ProviderStatus) Status {
	connected := 0
	for _, p := range providers {
		if p.Available {
			connected++
		}
	}
	return Status{
		Providers: providers,
		Connected: connected,
		Total:     len(providers),
		Aggregate: models.Aggregate(connected, len(providers)),
	}
}

// Service wraps the router's key endpoints with local validation.
type Service struct {
	client Client
}

// New creates a key service.
func New(client Client) *Service {
	return &Service{client: client}
}

// LoadStatus fetches provider status from the router.
func (s *Service) LoadStatus(ctx context.Context) (*Status, error) {
	providers, err := s.client.ProviderStatus(ctx)
	if err != nil {
		logger.Error("failed to load key status", "error", err)
		return nil, err
	}
	status := Summarize(providers)
	return &status, nil
}

// Test validates a key with the router without saving it.
func (s *Service) Test(ctx context.Context, provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.client.TestKey(ctx, provider, key); err != nil {
		logger.Warn("key test failed", "provider", provider, "error", err)
		return err
	}
	return nil
}

// Save stores a key for one provider.
func (s *Service) Save(ctx context.Context, provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.client.SaveKey(ctx, provider, key); err != nil {
		logger.Error("key save failed", "provider", provider, "error", err)
		return err
	}
	logger.Info("key saved", "provider", provider)
	return nil
}

// SaveAll stores every non-blank input in one request. It makes no request
// when all inputs are blank.
func (s *Service) SaveAll(ctx context.Context, inputs map[string]string) (int, error) {
	keys := Collect(inputs)
	if len(keys) == 0 {
		return 0, ErrNoKeys
	}

	n, err := s.client.SaveAllKeys(ctx, keys)
	if err != nil {
		logger.Error("save all keys failed", "error", err)
		return 0, err
	}
	logger.Info("keys saved", "count", n)
	return n, nil
}

// Collect returns the trimmed non-blank inputs.
func Collect(inputs map[string]string) map[string]string {
	keys := make(map[string]string, len(inputs))
	for provider, key := range inputs {
		if key = strings.TrimSpace(key); key != "" {
			keys[provider] = key
		}
	}
	return keys
}

// MaskKey hides the middle of a key, keeping the first 8 and last 4
// characters. Keys shorter than 10 characters are returned unchanged.
func MaskKey(key string) string {
	r := []rune(key)
	if len(r) < 10 {
		return key
	}
	return string(r[:8]) + "..." + string(r[len(r)-4:])
}

// Describe turns an operation error into an alert message. Router rejections
// and transport failures differ only in wording.
func Describe(action string, err error) string {
	var rejected *backend.RejectedError
	var apiErr *backend.APIError

	switch {
	case errors.Is(err, ErrEmptyKey):
		return "Enter an API key first"
	case errors.Is(err, ErrNoKeys):
		return "Enter at least one API key"
	case errors.As(err, &rejected):
		return fmt.Sprintf("%s failed: %s", action, rejected.Error())
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s failed: %s", action, apiErr.Error())
	default:
		return fmt.Sprintf("Connection error: %v", err)
	}
}

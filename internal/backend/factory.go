package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"spendyze/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type    Type
	BaseURL string
	Timeout time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(appConfig.Backend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.Backend)
	}
	return Config{
		Type:    t,
		BaseURL: appConfig.BackendURL,
		Timeout: appConfig.SnapshotTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == HTTPBackend && c.BaseURL == "" {
		return fmt.Errorf("base URL is required for http backend")
	}
	return nil
}

// Factory creates backend clients based on configuration
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the client selected by cfg.
func (f *Factory) Create(_ context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case HTTPBackend:
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient := &http.Client{Timeout: timeout}
		f.logger.Info("Initialized HTTP backend", "base_url", cfg.BaseURL)
		return &Result{
			Client: NewHTTPClient(cfg.BaseURL, httpClient, f.logger),
			Cleanup: func() error {
				httpClient.CloseIdleConnections()
				return nil
			},
		}, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &Result{Client: NewMemoryClient()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

// Package logger builds the process-wide zerolog logger and the optional
// New Relic application that traces requests and queries.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/config"
)

// Service owns the New Relic application. A Service without a license key
// has no application and every method is a no-op.
type Service struct {
	app *newrelic.Application
}

// NewService starts the New Relic agent when a license key is configured.
func NewService(cfg *config.ObservabilityConfig) (*Service, error) {
	if cfg.NewRelic.LicenseKey == "" {
		return &Service{}, nil
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(cfg.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(cfg.NewRelic.DistributedTracingEnabled),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"environment": cfg.Environment}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("new relic: %w", err)
	}
	return &Service{app: app}, nil
}

// Application returns the New Relic application, or nil when disabled.
func (s *Service) Application() *newrelic.Application {
	if s == nil {
		return nil
	}
	return s.app
}

func (s *Service) Shutdown() {
	if s == nil || s.app == nil {
		return
	}
	s.app.Shutdown(10 * time.Second)
}

// New returns a logger configured from cfg writing to stderr.
func New(cfg *config.ObservabilityConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg *config.ObservabilityConfig, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Logging.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).
		Level(cfg.GetLogLevel()).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()
}

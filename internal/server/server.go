package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/archive"
	"github.com/Lemmmy/SCHardwareSurvey/internal/config"
	"github.com/Lemmmy/SCHardwareSurvey/internal/handler"
	"github.com/Lemmmy/SCHardwareSurvey/internal/metrics"
	"github.com/Lemmmy/SCHardwareSurvey/internal/submission"
	"github.com/Lemmmy/SCHardwareSurvey/internal/web"
)

const maxSubmissionBody = "1M"

// Options are the collaborators the server routes to. NewRelic and Archiver
// may be nil.
type Options struct {
	Logger   zerolog.Logger
	NewRelic *newrelic.Application
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Gate     *submission.Gate
	Store    handler.ReportStore
	Archiver *archive.Manager
}

// Server holds the Echo app and dependencies.
type Server struct {
	Echo     *echo.Echo
	Config   *config.Config
	logger   zerolog.Logger
	archiver *archive.Manager // optional; stopped on Shutdown
}

// New builds the Echo server and registers routes.
func New(cfg *config.Config, opts Options) (*Server, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second

	e.Use(middleware.Recover(), requestLogger(opts.Logger))
	if opts.NewRelic != nil {
		e.Use(newRelicTransaction(opts.NewRelic))
	}

	submit := &handler.SubmitHandler{
		Gate:    opts.Gate,
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	}
	report := &handler.ReportHandler{
		Store:   opts.Store,
		Minimal: cfg.Server.Minimal,
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	}

	e.POST("/submit/:token", submit.Submit, middleware.BodyLimit(maxSubmissionBody))
	e.GET("/api/report", report.Report)
	e.GET("/healthz", report.Health)
	if opts.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(opts.Registry)))
	}
	// Everything else is the statistics page.
	e.GET("/*", report.Home)

	return &Server{Echo: e, Config: cfg, logger: opts.Logger, archiver: opts.Archiver}, nil
}

// Start starts the archiver and the HTTP server. It blocks until the context
// is cancelled or the server fails; on cancel Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("shutdown")
		}
	}()
	if s.archiver != nil {
		s.archiver.Start()
	}

	addr := ":" + s.Config.Server.Port
	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the archiver and then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.archiver != nil {
		s.archiver.Stop()
	}
	return s.Echo.Shutdown(ctx)
}

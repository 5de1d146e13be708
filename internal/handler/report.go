package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/metrics"
	"github.com/Lemmmy/SCHardwareSurvey/internal/report"
	"github.com/Lemmmy/SCHardwareSurvey/internal/response"
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
	"github.com/Lemmmy/SCHardwareSurvey/internal/web"
)

// ReportStore is the read side of the submission store.
type ReportStore interface {
	ListStats(ctx context.Context) ([]stats.Record, error)
	Ping(ctx context.Context) error
}

// ReportHandler serves the statistics page, its JSON twin and the health check.
// In Minimal mode the page is a static notice and the store is never scanned.
type ReportHandler struct {
	Store   ReportStore
	Minimal bool
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

func (h *ReportHandler) build(ctx context.Context) (*report.Report, error) {
	start := time.Now()
	records, err := h.Store.ListStats(ctx)
	if err != nil {
		return nil, err
	}
	rep := report.Assemble(records)
	h.Metrics.ReportBuilt(time.Since(start))
	return rep, nil
}

// Home renders the statistics page (GET /*).
func (h *ReportHandler) Home(c echo.Context) error {
	if h.Minimal {
		return c.Render(http.StatusOK, web.PageStatic, nil)
	}
	rep, err := h.build(c.Request().Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("build report")
		return response.InternalError(c, "could not build report", "store unavailable")
	}
	return c.Render(http.StatusOK, web.PageHome, rep)
}

// Report returns the report model as JSON (GET /api/report).
func (h *ReportHandler) Report(c echo.Context) error {
	if h.Minimal {
		return response.ServiceUnavailable(c, "report disabled", "server is running in minimal mode")
	}
	rep, err := h.build(c.Request().Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("build report")
		return response.InternalError(c, "could not build report", "store unavailable")
	}
	return response.OK(c, rep, "")
}

// Health pings the store (GET /healthz).
func (h *ReportHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		h.Logger.Warn().Err(err).Msg("health check failed")
		return response.ServiceUnavailable(c, "unhealthy", "store unreachable")
	}
	return response.OK(c, map[string]string{"status": "ok"}, "")
}

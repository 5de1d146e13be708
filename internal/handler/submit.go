package handler

import (
	"errors"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/metrics"
	"github.com/Lemmmy/SCHardwareSurvey/internal/response"
	"github.com/Lemmmy/SCHardwareSurvey/internal/submission"
)

// SubmitHandler serves POST /submit/:token.
type SubmitHandler struct {
	Gate    *submission.Gate
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Submit runs the request through the gate. Every outcome is reported in the
// JSON body with HTTP 200.
func (h *SubmitHandler) Submit(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		// BodyLimit fails the read with a 413 when there is no Content-Length.
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		h.Logger.Warn().Err(err).Msg("read submission body")
		return err
	}

	res, err := h.Gate.Submit(req.Context(), submission.Request{
		Token:     c.Param("token"),
		UserAgent: req.UserAgent(),
		Body:      body,
	})
	if err != nil {
		var subErr *submission.Error
		if !errors.As(err, &subErr) {
			subErr = &submission.Error{Code: submission.CodeUnknownError, Err: err}
		}
		h.Metrics.Submission(string(subErr.Code))
		return response.Rejected(c, string(subErr.Code), subErr.Stat)
	}

	h.Metrics.Submission(metrics.ResultOK)
	return response.Submitted(c, res.UpliftHeadThought)
}

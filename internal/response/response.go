package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the standard success response shape.
type APIResponse struct {
	Data    any    `json:"data"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path"`
}

// APIError is the standard error response shape.
type APIError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Path    string `json:"path"`
	Status  int    `json:"status"`
}

// SubmitResponse is the body of every POST /submit reply. Survey clients only
// look at the body, so it is always sent with HTTP 200.
type SubmitResponse struct {
	OK                bool   `json:"ok"`
	Error             string `json:"error,omitempty"`
	Stat              string `json:"stat,omitempty"`
	UpliftHeadThought string `json:"upliftHeadThought,omitempty"`
}

// pathFromContext returns the request path from Echo context.
func pathFromContext(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().URL.Path
}

// OK sends a 200 response with data.
func OK(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, APIResponse{
		Data:    data,
		Status:  http.StatusOK,
		Message: message,
		Path:    pathFromContext(c),
	})
}

// Error sends a JSON error response using APIError.
func Error(c echo.Context, status int, message, errDetail string) error {
	return c.JSON(status, APIError{
		Message: message,
		Error:   errDetail,
		Path:    pathFromContext(c),
		Status:  status,
	})
}

// InternalError sends 500 with message and error detail.
func InternalError(c echo.Context, message, errDetail string) error {
	return Error(c, http.StatusInternalServerError, message, errDetail)
}

// ServiceUnavailable sends 503 with message and error detail.
func ServiceUnavailable(c echo.Context, message, errDetail string) error {
	return Error(c, http.StatusServiceUnavailable, message, errDetail)
}

// Submitted acknowledges a stored submission.
func Submitted(c echo.Context, thought string) error {
	return c.JSON(http.StatusOK, SubmitResponse{OK: true, UpliftHeadThought: thought})
}

// Rejected reports a refused submission by its error code. stat is only set
// for invalid_stat.
func Rejected(c echo.Context, code, stat string) error {
	return c.JSON(http.StatusOK, SubmitResponse{OK: false, Error: code, Stat: stat})
}

package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   int    `json:"code"`
}

// HTTPErrorHandler renders errors as ErrorResponse and logs server faults.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch msg := he.Message.(type) {
		case string:
			detail = msg
		case error:
			detail = msg.Error()
		default:
			detail = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		slog.Error("api: request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", code,
			"error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, ErrorResponse{Detail: detail, Code: code})
	}
	if err != nil {
		slog.Warn("api: failed to write error response", "error", err)
	}
}

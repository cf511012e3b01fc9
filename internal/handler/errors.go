package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorHandler renders errors that escape handlers and middleware in the
// {"error": ...} shape. Client errors keep echo's message; anything else is
// logged and answered with the generic server message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := MessageInternalError

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		status = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(he.Code)
		}
	} else {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("unhandled request error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if writeErr := Error(c, status, message); writeErr != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(writeErr).Msg("failed to write error response")
	}
}

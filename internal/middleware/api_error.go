package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JSONErrorHandler renders errors as {"detail": "..."} for the API
func JSONErrorHandler(logger *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := httpErrorDetails(err)
		if code >= http.StatusInternalServerError {
			logger.Errorw("request failed", "path", c.Request().URL.Path, "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, map[string]string{"detail": message})
		}
		if writeErr != nil {
			logger.Errorw("failed to write error response", "error", writeErr)
		}
	}
}

// httpErrorDetails extracts the status and a client-safe message
func httpErrorDetails(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok && msg != "" {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again later."
}

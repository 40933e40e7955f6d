package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"company_registry/web/templates/pages"
	"company_registry/web/templates/shared"
)

// PagePropsFunc builds the layout props of an error page
type PagePropsFunc func(c echo.Context, title string) shared.PageProps

// HTMLErrorHandler renders errors as pages of the front end
func HTMLErrorHandler(logger *zap.SugaredLogger, props PagePropsFunc, homeURL string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		errorTitle := "Internal Server Error"
		errorMessage := ""

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok && msg != http.StatusText(code) {
				errorMessage = msg
			}
		}

		switch code {
		case http.StatusNotFound:
			errorTitle = "Page Not Found"
			if errorMessage == "" {
				errorMessage = "The page you're looking for doesn't exist."
			}
		case http.StatusBadRequest:
			errorTitle = "Bad Request"
			if errorMessage == "" {
				errorMessage = "The request could not be processed."
			}
		case http.StatusMethodNotAllowed:
			errorTitle = "Method Not Allowed"
			errorMessage = "This page does not accept that kind of request."
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			errorTitle = "Registry Unavailable"
			if errorMessage == "" {
				errorMessage = "The registry could not be reached. Please try again later."
			}
		default:
			if errorMessage == "" {
				errorMessage = "Something went wrong. Please try again later."
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("request failed", "path", c.Request().URL.Path, "status", code, "error", err)
		}

		p := pages.ErrorPageProps{
			PageProps:    props(c, errorTitle),
			Status:       code,
			ErrorTitle:   errorTitle,
			ErrorMessage: errorMessage,
			BackLink:     homeURL,
			BackText:     "Back to the registry",
		}
		p.Breadcrumbs = []shared.Breadcrumb{
			{Title: "Home", URL: homeURL},
			{Title: "Error", URL: ""},
		}

		if c.Request().Method == http.MethodHead {
			if err := c.NoContent(code); err != nil {
				logger.Errorw("failed to write error response", "error", err)
			}
			return
		}

		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().Status = code

		if renderErr := pages.ErrorPage(p).Render(c.Request().Context(), c.Response()); renderErr != nil {
			logger.Errorw("failed to render error page", "error", fmt.Errorf("render error page: %w", renderErr))
			if !c.Response().Committed {
				c.String(code, errorMessage)
			}
		}
	}
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"company_registry/web/templates/shared"
)

func testProps(c echo.Context, title string) shared.PageProps {
	return shared.PageProps{Title: title, AssetsURL: "/static"}
}

func TestHTMLErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantTitle   string
		wantMessage string
	}{
		{
			name:        "not found without message",
			err:         echo.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantTitle:   "Page Not Found",
			wantMessage: "The page you&#39;re looking for doesn&#39;t exist.",
		},
		{
			name:        "not found with message",
			err:         echo.NewHTTPError(http.StatusNotFound, "Company not found"),
			wantStatus:  http.StatusNotFound,
			wantTitle:   "Page Not Found",
			wantMessage: "Company not found",
		},
		{
			name:        "upstream failure",
			err:         echo.NewHTTPError(http.StatusBadGateway).SetInternal(errors.New("dial tcp: refused")),
			wantStatus:  http.StatusBadGateway,
			wantTitle:   "Registry Unavailable",
			wantMessage: "The registry could not be reached.",
		},
		{
			name:        "plain error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantTitle:   "Internal Server Error",
			wantMessage: "Something went wrong.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			handler := HTMLErrorHandler(zaptest.NewLogger(t).Sugar(), testProps, "/")

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), rec)
			handler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
			body := rec.Body.String()
			assert.Contains(t, body, "<h1>"+tt.wantTitle+"</h1>")
			assert.Contains(t, body, tt.wantMessage)
			assert.Contains(t, body, `<div id="app">`)
			assert.NotContains(t, body, "dial tcp")
		})
	}
}

func TestHTMLErrorHandlerSkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	assert.NoError(t, c.String(http.StatusOK, "partial"))

	HTMLErrorHandler(zaptest.NewLogger(t).Sugar(), testProps, "/")(errors.New("late"), c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestJSONErrorHandler(t *testing.T) {
	e := echo.New()
	handler := JSONErrorHandler(zaptest.NewLogger(t).Sugar())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/companies/1", nil), rec)
	handler(echo.NewHTTPError(http.StatusNotFound, "Company not found"), c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Company not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	handler(errors.New("database exploded"), c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")
}

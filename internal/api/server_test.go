package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"company_registry/internal/models"
	"company_registry/internal/services"
)

func newTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	db, err := services.InitDB("sqlite:" + filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, services.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewServer(db, zaptest.NewLogger(t).Sugar()), db
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRootAndHealth(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	root := decode[map[string]string](t, rec)
	assert.Equal(t, "/api/v1", root["api_prefix"])
	assert.Equal(t, "1.0.0", root["version"])

	rec = doJSON(t, e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])

	rec = doJSON(t, e, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/companies/:id/capital-increase")
}

func TestCORSAllowsCredentials(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/companies", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:8080")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(echo.HeaderAccessControlRequestHeaders, "Content-Type")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	assert.Equal(t, "Content-Type", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
}

func TestPersonLifecycle(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/persons/", `{"type":"individual","first_name":"Mari","last_name":"Tamm","id_code":"49001010001"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	mari := decode[models.Person](t, rec)
	assert.NotZero(t, mari.ID)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/persons", `{"type":"legal","legal_name":"Kask Investeeringud","reg_code":"12345678"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, "/api/v1/persons?type=legal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	legal := decode[[]models.Person](t, rec)
	require.Len(t, legal, 1)
	assert.Equal(t, "Kask Investeeringud", legal[0].LegalName)

	rec = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/v1/persons/%d", mari.ID), `{"type":"individual","first_name":"Mari","last_name":"Saar","id_code":"49001010001"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Saar", decode[models.Person](t, rec).LastName)

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/persons/%d", mari.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "49001010001", decode[models.Person](t, rec).IDCode)

	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/persons/%d", mari.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/persons/%d", mari.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Person not found", decode[map[string]string](t, rec)["detail"])
}

func TestPersonValidation(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "individual without names", body: `{"type":"individual","id_code":"1"}`, code: http.StatusUnprocessableEntity},
		{name: "legal without registry code", body: `{"type":"legal","legal_name":"X"}`, code: http.StatusUnprocessableEntity},
		{name: "unknown type", body: `{"type":"robot","first_name":"R","last_name":"2"}`, code: http.StatusUnprocessableEntity},
		{name: "malformed json", body: `{"type":`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/api/v1/persons", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, rec)["detail"])
		})
	}
}

func TestCompanyLifecycle(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/companies", `{"name":"Tartu Puit OÜ","reg_code":"1234567","founding_date":"2020-01-15","capital":"2500"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	company := decode[models.Company](t, rec)
	assert.Equal(t, "2020-01-15", company.FoundingDate.String())
	assert.True(t, company.Capital.Equal(decimal.NewFromInt(2500)))

	rec = doJSON(t, e, http.MethodPost, "/api/v1/companies", `{"name":"Other OÜ","reg_code":"1234567","founding_date":"2021-01-01","capital":3000}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/companies", `{"name":"Long OÜ","reg_code":"12345678","founding_date":"2021-01-01","capital":3000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/companies", `{"name":"Dateless OÜ","reg_code":"7654321","capital":3000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/companies", `{"name":"Eesti Energia OÜ","reg_code":"7654321","founding_date":"2010-06-01","capital":10000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, "/api/v1/companies?name=PUIT", "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]models.Company](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, company.ID, found[0].ID)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/companies?founded_after=2015-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Company](t, rec), 1)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/companies?founded_after=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/companies?limit=1&skip=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]models.Company](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, "Eesti Energia OÜ", page[0].Name)

	rec = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/v1/companies/%d", company.ID), `{"name":"Tartu Puit AS","reg_code":"1234567","founding_date":"2020-01-15","capital":2500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Tartu Puit AS", decode[models.Company](t, rec).Name)

	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/companies/%d", company.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/companies/%d", company.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/companies/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShareholdingsAndCapitalIncrease(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/companies", `{"name":"Tartu Puit OÜ","reg_code":"1234567","founding_date":"2020-01-15","capital":2500}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	company := decode[models.Company](t, rec)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/persons", `{"type":"individual","first_name":"Mari","last_name":"Tamm","id_code":"49001010001"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	mari := decode[models.Person](t, rec)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/persons", `{"type":"individual","first_name":"Jaan","last_name":"Saar","id_code":"38501010002"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	jaan := decode[models.Person](t, rec)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/shareholdings", fmt.Sprintf(`{"company_id":%d,"person_id":%d,"share":2500,"is_founder":true}`, company.ID, mari.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	holding := decode[models.Shareholding](t, rec)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/shareholdings", fmt.Sprintf(`{"company_id":%d,"person_id":9999,"share":1}`, company.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Person not found", decode[map[string]string](t, rec)["detail"])

	rec = doJSON(t, e, http.MethodPost, "/api/v1/shareholdings", fmt.Sprintf(`{"company_id":9999,"person_id":%d,"share":1}`, mari.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Company not found", decode[map[string]string](t, rec)["detail"])

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/shareholdings/%d", holding.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	detailed := decode[models.Shareholding](t, rec)
	require.NotNil(t, detailed.Company)
	require.NotNil(t, detailed.Person)
	assert.Equal(t, "Tartu Puit OÜ", detailed.Company.Name)

	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/v1/companies/%d/capital-increase", company.ID),
		fmt.Sprintf(`{"contributions":[{"person_id":%d,"amount":"500"},{"person_id":%d,"amount":1000}]}`, mari.ID, jaan.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	increased := decode[models.Company](t, rec)
	assert.True(t, increased.Capital.Equal(decimal.NewFromInt(4000)))
	assert.Len(t, increased.Shareholdings, 2)

	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/v1/companies/%d/capital-increase", company.ID), `{"contributions":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/v1/companies/%d/capital-increase", company.ID),
		fmt.Sprintf(`{"contributions":[{"person_id":%d,"amount":"-1"}]}`, mari.ID))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/companies/9999/capital-increase",
		fmt.Sprintf(`{"contributions":[{"person_id":%d,"amount":"1"}]}`, mari.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/shareholdings?company_id=%d", company.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Shareholding](t, rec), 2)

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/shareholdings?person_id=%d", jaan.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Shareholding](t, rec), 1)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/search?q=jaan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[[]models.Company](t, rec)
	require.Len(t, hits, 1)
	assert.Equal(t, company.ID, hits[0].ID)

	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/shareholdings/%d", holding.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/shareholdings/%d", holding.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

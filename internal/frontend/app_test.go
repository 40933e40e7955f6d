package frontend

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"company_registry/internal/api"
	"company_registry/internal/apiclient"
	"company_registry/internal/config"
	"company_registry/internal/models"
	"company_registry/internal/routes"
	"company_registry/internal/services"
)

type stack struct {
	app *App
	db  *gorm.DB
	api *httptest.Server
}

func newStack(t *testing.T, basePath string) *stack {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()

	db, err := services.InitDB("sqlite:" + filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	require.NoError(t, services.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	apiServer := httptest.NewServer(api.NewServer(db, logger))
	t.Cleanup(apiServer.Close)

	cfg := config.Config{
		Env:                "test",
		Port:               "0",
		APIBaseURL:         apiServer.URL + "/",
		APIWithCredentials: true,
		BaseURL:            basePath,
	}
	app, err := New(cfg, logger, nil)
	require.NoError(t, err)

	return &stack{app: app, db: db, api: apiServer}
}

func (s *stack) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.app.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *stack) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.app.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *stack) individual(t *testing.T, first, last, code string) models.Person {
	t.Helper()
	p := models.Person{Type: models.PersonTypeIndividual, FirstName: first, LastName: last, IDCode: code}
	require.NoError(t, s.db.Create(&p).Error)
	return p
}

func (s *stack) company(t *testing.T, name, code string, holder models.Person) models.Company {
	t.Helper()
	c := models.Company{
		Name:         name,
		RegCode:      code,
		FoundingDate: models.NewDate(2020, 1, 15),
		Capital:      decimal.NewFromInt(2500),
		Shareholdings: []models.Shareholding{
			{PersonID: holder.ID, Share: decimal.NewFromInt(2500), IsFounder: true},
		},
	}
	require.NoError(t, s.db.Create(&c).Error)
	return c
}

func companyPath(id uint) string {
	return "/company/" + strconv.FormatUint(uint64(id), 10)
}

func TestBootstrap(t *testing.T) {
	s := newStack(t, "")

	assert.Equal(t, apiclient.Defaults{BaseURL: s.api.URL + "/", WithCredentials: true}, s.app.Defaults())

	_, err := New(config.Config{APIBaseURL: "not a url", Port: "0"}, zaptest.NewLogger(t).Sugar(), nil)
	assert.Error(t, err)
}

func TestRouteTableResolution(t *testing.T) {
	s := newStack(t, "")
	table := s.app.Routes()

	tests := []struct {
		path string
		name string
	}{
		{"/", routes.NameHome},
		{"/company/42", routes.NameCompany},
		{"/register", routes.NameRegister},
		{"/company/42/capital", routes.NameCapitalIncrease},
		{"/search", routes.NameSearch},
		{"/company/42/", routes.NameCompany},
	}
	for _, tt := range tests {
		m, ok := table.Resolve(tt.path)
		require.True(t, ok, tt.path)
		assert.Equal(t, tt.name, m.Route.Name, tt.path)
	}

	m, _ := table.Resolve("/company/42")
	assert.Equal(t, "42", m.Params["id"])

	for _, path := range []string{"/does-not-exist", "/static/app.css", "/metrics"} {
		_, ok := table.Resolve(path)
		assert.False(t, ok, path)
	}
}

func TestHomePage(t *testing.T) {
	s := newStack(t, "")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")
	s.company(t, "Tartu Puit OÜ", "1234567", mari)

	rec := s.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, `<div id="app">`)
	assert.Contains(t, body, "Tartu Puit OÜ")
	assert.Contains(t, body, `<a href="/" class="active">Companies</a>`)
}

func TestCompanyPage(t *testing.T) {
	s := newStack(t, "")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")
	company := s.company(t, "Tartu Puit OÜ", "1234567", mari)

	assert.Equal(t, 0, s.app.Routes().LoadCount(routes.NameCompany))

	rec := s.get(companyPath(company.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<td>Mari Tamm</td><td>49001010001</td>")
	assert.Contains(t, body, `href="`+companyPath(company.ID)+`/capital"`)

	s.get(companyPath(company.ID))
	assert.Equal(t, 1, s.app.Routes().LoadCount(routes.NameCompany))
}

func TestNotFoundPages(t *testing.T) {
	s := newStack(t, "")

	for _, path := range []string{"/does-not-exist", "/company/9999", "/company/abc"} {
		rec := s.get(path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Page Not Found", path)
		assert.Contains(t, rec.Body.String(), `<div id="app">`, path)
	}
}

func TestStaticAssets(t *testing.T) {
	s := newStack(t, "")

	rec := s.get("/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#app")
}

func TestRegisterCompany(t *testing.T) {
	s := newStack(t, "")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")

	rec := s.get("/register")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<form method="post" action="/register"`)
	assert.Contains(t, rec.Body.String(), "Mari Tamm (49001010001)")

	form := url.Values{
		"name":               {"Uus Kodu OÜ"},
		"reg_code":           {"7654321"},
		"founding_date":      {"2021-03-09"},
		"capital":            {"2500"},
		"founder_kind":       {"individual", "existing", "individual"},
		"founder_person_id":  {"", strconv.FormatUint(uint64(mari.ID), 10), ""},
		"founder_first_name": {"Jaan", "", ""},
		"founder_last_name":  {"Saar", "", ""},
		"founder_id_code":    {"38501010002", "", ""},
		"founder_legal_name": {"", "", ""},
		"founder_reg_code":   {"", "", ""},
		"founder_share":      {"1500", "1000", ""},
	}

	rec = s.post("/register", form)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	var company models.Company
	require.NoError(t, s.db.Preload("Shareholdings.Person").Where("reg_code = ?", "7654321").First(&company).Error)
	assert.Equal(t, companyPath(company.ID)+"?registered=1", rec.Header().Get("Location"))
	assert.True(t, company.Capital.Equal(decimal.NewFromInt(2500)))
	require.Len(t, company.Shareholdings, 2)
	for _, sh := range company.Shareholdings {
		assert.True(t, sh.IsFounder)
	}
	assert.True(t, company.TotalShares().Equal(company.Capital))

	rec = s.get(rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "The company has been registered.")
}

func TestRegisterValidation(t *testing.T) {
	s := newStack(t, "")

	base := func() url.Values {
		return url.Values{
			"name":               {"Uus Kodu OÜ"},
			"reg_code":           {"7654321"},
			"founding_date":      {"2021-03-09"},
			"capital":            {"2500"},
			"founder_kind":       {"legal"},
			"founder_person_id":  {""},
			"founder_first_name": {""},
			"founder_last_name":  {""},
			"founder_id_code":    {""},
			"founder_legal_name": {"Kask AS"},
			"founder_reg_code":   {"10000001"},
			"founder_share":      {"2500"},
		}
	}

	tests := []struct {
		name    string
		change  func(url.Values)
		message string
	}{
		{
			name:    "capital below minimum",
			change:  func(v url.Values) { v.Set("capital", "1000"); v.Set("founder_share", "1000") },
			message: "Capital must be at least 2500 €",
		},
		{
			name:    "shares do not add up",
			change:  func(v url.Values) { v.Set("founder_share", "2000") },
			message: "shares add up to 2000.00 € but the capital is 2500.00 €",
		},
		{
			name:    "registry code too long",
			change:  func(v url.Values) { v.Set("reg_code", "12345678") },
			message: "Registry code must be at most 7 characters",
		},
		{
			name:    "missing founder",
			change:  func(v url.Values) { v.Set("founder_legal_name", ""); v.Set("founder_reg_code", ""); v.Set("founder_share", "") },
			message: "At least one founder is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := base()
			tt.change(form)

			rec := s.post("/register", form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Contains(t, rec.Body.String(), `value="Uus Kodu OÜ"`)
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.Company{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterDuplicateRegistryCode(t *testing.T) {
	s := newStack(t, "")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")
	s.company(t, "Tartu Puit OÜ", "1234567", mari)

	form := url.Values{
		"name":               {"Teine Puit OÜ"},
		"reg_code":           {"1234567"},
		"founding_date":      {"2021-03-09"},
		"capital":            {"2500"},
		"founder_kind":       {"individual"},
		"founder_person_id":  {""},
		"founder_first_name": {"Jaan"},
		"founder_last_name":  {"Saar"},
		"founder_id_code":    {"38501010002"},
		"founder_legal_name": {""},
		"founder_reg_code":   {""},
		"founder_share":      {"2500"},
	}

	rec := s.post("/register", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Company with this registry code already exists")

	// The founder created before the failure is offered as an existing person
	var jaan models.Person
	require.NoError(t, s.db.Where("id_code = ?", "38501010002").First(&jaan).Error)
	assert.Contains(t, rec.Body.String(), `<option value="existing" selected>existing</option>`)
	assert.Contains(t, rec.Body.String(), `<option value="`+strconv.FormatUint(uint64(jaan.ID), 10)+`" selected>Jaan Saar (38501010002)</option>`)
}

func TestCapitalIncrease(t *testing.T) {
	s := newStack(t, "")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")
	company := s.company(t, "Tartu Puit OÜ", "1234567", mari)
	path := companyPath(company.ID) + "/capital"

	rec := s.get(path)
	require.Equal(t, http.StatusOK, rec.Code)
	contributionField := "contribution_" + strconv.FormatUint(uint64(mari.ID), 10)
	assert.Contains(t, rec.Body.String(), `name="`+contributionField+`"`)

	form := url.Values{
		contributionField:   {"500"},
		"holder_kind":       {"legal", "individual"},
		"holder_person_id":  {"", ""},
		"holder_first_name": {"", ""},
		"holder_last_name":  {"", ""},
		"holder_id_code":    {"", ""},
		"holder_legal_name": {"Kask AS", ""},
		"holder_reg_code":   {"10000001", ""},
		"holder_share":      {"1000", ""},
	}

	rec = s.post(path, form)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, companyPath(company.ID)+"?increased=1", rec.Header().Get("Location"))

	var updated models.Company
	require.NoError(t, s.db.Preload("Shareholdings").First(&updated, company.ID).Error)
	assert.True(t, updated.Capital.Equal(decimal.NewFromInt(4000)), updated.Capital.String())
	require.Len(t, updated.Shareholdings, 2)
	assert.True(t, updated.TotalShares().Equal(updated.Capital))

	rec = s.get(rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "The capital has been increased.")
	assert.Contains(t, rec.Body.String(), "Kask AS")
}

func TestCapitalIncreaseValidation(t *testing.T) {
	s := newStack(t, "")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")
	company := s.company(t, "Tartu Puit OÜ", "1234567", mari)
	path := companyPath(company.ID) + "/capital"

	rec := s.post(path, url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter at least one contribution")

	rec = s.post(path, url.Values{"contribution_" + strconv.FormatUint(uint64(mari.ID), 10): {"-5"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contribution of Mari Tamm must be positive")

	rec = s.post("/company/9999/capital", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchPage(t *testing.T) {
	s := newStack(t, "")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")
	s.company(t, "Tartu Puit OÜ", "1234567", mari)
	jaan := s.individual(t, "Jaan", "Saar", "38501010002")
	s.company(t, "Saare Kala OÜ", "7654321", jaan)

	rec := s.get("/search?q=tamm")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tartu Puit OÜ")
	assert.NotContains(t, rec.Body.String(), "Saare Kala OÜ")

	rec = s.get("/search")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "No companies match your search.")
}

func TestBasePath(t *testing.T) {
	s := newStack(t, "/registry/")
	mari := s.individual(t, "Mari", "Tamm", "49001010001")
	company := s.company(t, "Tartu Puit OÜ", "1234567", mari)

	for _, path := range []string{"/registry", "/registry/", "/registry/search", "/registry" + companyPath(company.ID)} {
		assert.Equal(t, http.StatusOK, s.get(path).Code, path)
	}
	assert.Equal(t, http.StatusOK, s.get("/registry/static/app.css").Code)
	assert.Equal(t, http.StatusNotFound, s.get("/search").Code)

	m, ok := s.app.Routes().Resolve("/registry/register")
	require.True(t, ok)
	assert.Equal(t, routes.NameRegister, m.Route.Name)

	body := s.get("/registry").Body.String()
	assert.Contains(t, body, `href="/registry/company/`)
	assert.Contains(t, body, `href="/registry/static/app.css"`)
}

func TestAPIUnavailable(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	app, err := New(config.Config{Port: "0", APIBaseURL: down.URL + "/", APIWithCredentials: true}, logger, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registry Unavailable")
}

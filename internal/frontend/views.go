package frontend

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"company_registry/internal/apiclient"
	"company_registry/internal/models"
	"company_registry/internal/routes"
	"company_registry/web/templates/pages"
	"company_registry/web/templates/shared"
)

const (
	homeCompanyLimit = 50
	searchLimit      = 100
	personListLimit  = 1000
)

// views holds the handlers behind the route table
type views struct {
	api       *apiclient.Client
	routes    *routes.Table
	logger    *zap.SugaredLogger
	assetsURL string
}

func (v *views) loadHome() (echo.HandlerFunc, error)            { return v.showHome, nil }
func (v *views) loadCompany() (echo.HandlerFunc, error)         { return v.showCompany, nil }
func (v *views) loadRegister() (echo.HandlerFunc, error)        { return v.showRegister, nil }
func (v *views) loadCapitalIncrease() (echo.HandlerFunc, error) { return v.showCapitalIncrease, nil }
func (v *views) loadSearch() (echo.HandlerFunc, error)          { return v.showSearch, nil }

func (v *views) pageProps(c echo.Context, title string, crumbs ...shared.Breadcrumb) shared.PageProps {
	active, _ := c.Get(routes.RouteNameKey).(string)
	return shared.PageProps{
		Title:       title,
		ActiveNav:   active,
		Breadcrumbs: crumbs,
		AssetsURL:   v.assetsURL,
		Nav: []shared.NavLink{
			{Name: routes.NameHome, Title: "Companies", URL: v.routes.URL(routes.NameHome)},
			{Name: routes.NameRegister, Title: "Register", URL: v.routes.URL(routes.NameRegister)},
			{Name: routes.NameSearch, Title: "Search", URL: v.routes.URL(routes.NameSearch)},
		},
	}
}

func (v *views) home() shared.Breadcrumb {
	return shared.Breadcrumb{Title: "Home", URL: v.routes.URL(routes.NameHome)}
}

func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response())
}

// upstreamError turns an API failure into the error page shown to the user
func upstreamError(err error, notFound string) error {
	var apiErr *apiclient.APIError
	switch {
	case apiclient.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, notFound).SetInternal(err)
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return echo.NewHTTPError(apiErr.Status, apiErr.Detail).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusBadGateway).SetInternal(err)
	}
}

// formError is the message and status shown when the API rejects a form
func formError(err error) (int, string, bool) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return http.StatusUnprocessableEntity, apiErr.Detail, true
	}
	return 0, "", false
}

func companyID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Company not found")
	}
	return uint(id), nil
}

func (v *views) showHome(c echo.Context) error {
	companies, err := v.api.ListCompanies(c.Request().Context(), apiclient.CompanyFilter{Limit: homeCompanyLimit})
	if err != nil {
		return upstreamError(err, "Companies not found")
	}

	props := pages.HomeProps{
		PageProps: v.pageProps(c, "Companies"),
		URL:       v.routes.URL,
		Companies: companies,
	}
	return render(c, http.StatusOK, pages.Home(props))
}

func (v *views) showCompany(c echo.Context) error {
	id, err := companyID(c)
	if err != nil {
		return err
	}

	company, err := v.api.GetCompany(c.Request().Context(), id)
	if err != nil {
		return upstreamError(err, "Company not found")
	}

	props := pages.CompanyProps{
		PageProps: v.pageProps(c, company.Name, v.home(), shared.Breadcrumb{Title: company.Name}),
		URL:       v.routes.URL,
		Company:   *company,
	}
	switch {
	case c.QueryParam("registered") != "":
		props.Flash = "The company has been registered."
	case c.QueryParam("increased") != "":
		props.Flash = "The capital has been increased."
	}
	return render(c, http.StatusOK, pages.Company(props))
}

func (v *views) showSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))

	var results []models.Company
	if query != "" {
		var err error
		results, err = v.api.Search(c.Request().Context(), query, searchLimit)
		if err != nil {
			return upstreamError(err, "No companies found")
		}
	}

	props := pages.SearchProps{
		PageProps: v.pageProps(c, "Search", v.home(), shared.Breadcrumb{Title: "Search"}),
		URL:       v.routes.URL,
		Query:     query,
		Results:   results,
	}
	return render(c, http.StatusOK, pages.Search(props))
}

func (v *views) showRegister(c echo.Context) error {
	form := pages.RegistrationForm{Founders: blankRows(blankFounderRows)}
	return v.renderRegister(c, http.StatusOK, form, nil)
}

func (v *views) renderRegister(c echo.Context, status int, form pages.RegistrationForm, errs []string) error {
	persons, err := v.api.ListPersons(c.Request().Context(), "", 0, personListLimit)
	if err != nil {
		return upstreamError(err, "Persons not found")
	}

	c.Set(routes.RouteNameKey, routes.NameRegister)
	props := pages.RegisterProps{
		PageProps: v.pageProps(c, "Register a company", v.home(), shared.Breadcrumb{Title: "Register"}),
		URL:       v.routes.URL,
		Form:      form,
		Persons:   persons,
		Errors:    errs,
	}
	return render(c, status, pages.Register(props))
}

func (v *views) submitRegistration(c echo.Context) error {
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "The form could not be read.")
	}

	form := parseRegistration(values)
	reg, errs := validateRegistration(form)
	if len(errs) > 0 {
		return v.renderRegister(c, http.StatusUnprocessableEntity, form, errs)
	}

	ctx := c.Request().Context()

	// Persons created here stay selected if a later step fails
	if err := v.createPersons(c, reg.founders, form.Founders); err != nil {
		return v.registrationFailed(c, form, err)
	}

	company, err := v.api.CreateCompany(ctx, reg.company)
	if err != nil {
		return v.registrationFailed(c, form, err)
	}

	for _, f := range reg.founders {
		_, err := v.api.CreateShareholding(ctx, apiclient.ShareholdingInput{
			CompanyID: company.ID,
			PersonID:  f.personID,
			Share:     f.amount,
			IsFounder: true,
		})
		if err != nil {
			v.logger.Errorw("failed to add founder", "company_id", company.ID, "person_id", f.personID, "error", err)
			return upstreamError(err, "Company not found")
		}
	}

	v.logger.Infow("company registered", "company_id", company.ID, "reg_code", company.RegCode, "founders", len(reg.founders))
	return c.Redirect(http.StatusSeeOther, v.routes.URL(routes.NameCompany, company.ID)+"?registered=1")
}

func (v *views) registrationFailed(c echo.Context, form pages.RegistrationForm, err error) error {
	status, message, ok := formError(err)
	if !ok {
		return upstreamError(err, "Company not found")
	}
	return v.renderRegister(c, status, form, []string{message})
}

// createPersons creates the persons of new rows and fills in their ids.
// Each created row is switched to the existing person so a resubmit
// does not create it twice.
func (v *views) createPersons(c echo.Context, holders []holder, rows []pages.PersonRow) error {
	for i := range holders {
		h := &holders[i]
		if h.personID != 0 {
			continue
		}
		person, err := v.api.CreatePerson(c.Request().Context(), h.person)
		if err != nil {
			return err
		}
		h.personID = person.ID
		if h.row >= 0 && h.row < len(rows) {
			rows[h.row].Kind = pages.PersonKindExisting
			rows[h.row].PersonID = strconv.FormatUint(uint64(person.ID), 10)
		}
	}
	return nil
}

func (v *views) showCapitalIncrease(c echo.Context) error {
	id, err := companyID(c)
	if err != nil {
		return err
	}
	company, err := v.api.GetCompany(c.Request().Context(), id)
	if err != nil {
		return upstreamError(err, "Company not found")
	}

	form := pages.CapitalIncreaseForm{NewHolders: blankRows(blankHolderRows)}
	return v.renderCapitalIncrease(c, http.StatusOK, *company, form, nil)
}

func (v *views) renderCapitalIncrease(c echo.Context, status int, company models.Company, form pages.CapitalIncreaseForm, errs []string) error {
	persons, err := v.api.ListPersons(c.Request().Context(), "", 0, personListLimit)
	if err != nil {
		return upstreamError(err, "Persons not found")
	}

	c.Set(routes.RouteNameKey, routes.NameCapitalIncrease)
	props := pages.CapitalIncreaseProps{
		PageProps: v.pageProps(c, "Increase capital",
			v.home(),
			shared.Breadcrumb{Title: company.Name, URL: v.routes.URL(routes.NameCompany, company.ID)},
			shared.Breadcrumb{Title: "Increase capital"},
		),
		URL:     v.routes.URL,
		Company: company,
		Form:    form,
		Persons: persons,
		Errors:  errs,
	}
	return render(c, status, pages.CapitalIncrease(props))
}

func (v *views) submitCapitalIncrease(c echo.Context) error {
	id, err := companyID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	company, err := v.api.GetCompany(ctx, id)
	if err != nil {
		return upstreamError(err, "Company not found")
	}

	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "The form could not be read.")
	}

	form := parseCapitalIncrease(values, *company)
	holders, errs := validateCapitalIncrease(form, *company)
	if len(errs) > 0 {
		return v.renderCapitalIncrease(c, http.StatusUnprocessableEntity, *company, form, errs)
	}

	fail := func(err error) error {
		status, message, ok := formError(err)
		if !ok {
			return upstreamError(err, "Company not found")
		}
		return v.renderCapitalIncrease(c, status, *company, form, []string{message})
	}

	if err := v.createPersons(c, holders, form.NewHolders); err != nil {
		return fail(err)
	}

	contributions := make([]apiclient.Contribution, len(holders))
	for i, h := range holders {
		contributions[i] = apiclient.Contribution{PersonID: h.personID, Amount: h.amount}
	}

	updated, err := v.api.IncreaseCapital(ctx, company.ID, contributions)
	if err != nil {
		return fail(err)
	}

	v.logger.Infow("capital increased", "company_id", updated.ID, "capital", updated.Capital.String())
	return c.Redirect(http.StatusSeeOther, v.routes.URL(routes.NameCompany, company.ID)+"?increased=1")
}

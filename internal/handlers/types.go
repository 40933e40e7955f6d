package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"company_registry/internal/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// ErrorResponse is the body of every failed API request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// PersonRequest is the payload for creating or replacing a person
type PersonRequest struct {
	Type      models.PersonType `json:"type" validate:"required,oneof=individual legal"`
	FirstName string            `json:"first_name" validate:"required_if=Type individual,max=255"`
	LastName  string            `json:"last_name" validate:"required_if=Type individual,max=255"`
	IDCode    string            `json:"id_code" validate:"max=50"`
	LegalName string            `json:"legal_name" validate:"required_if=Type legal,max=255"`
	RegCode   string            `json:"reg_code" validate:"required_if=Type legal,max=50"`
}

func (r PersonRequest) apply(p *models.Person) {
	p.Type = r.Type
	p.FirstName = r.FirstName
	p.LastName = r.LastName
	p.IDCode = r.IDCode
	p.LegalName = r.LegalName
	p.RegCode = r.RegCode
}

// CompanyRequest is the payload for creating or replacing a company
type CompanyRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	RegCode      string          `json:"reg_code" validate:"required,min=1,max=7"`
	FoundingDate models.Date     `json:"founding_date"`
	Capital      decimal.Decimal `json:"capital"`
}

func (r CompanyRequest) check() error {
	if r.FoundingDate.IsZero() {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "founding_date is required")
	}
	if r.Capital.IsNegative() {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "capital must not be negative")
	}
	return nil
}

func (r CompanyRequest) apply(c *models.Company) {
	c.Name = r.Name
	c.RegCode = r.RegCode
	c.FoundingDate = r.FoundingDate
	c.Capital = r.Capital
}

// ShareholdingRequest is the payload for creating or replacing a shareholding
type ShareholdingRequest struct {
	CompanyID uint            `json:"company_id" validate:"required"`
	PersonID  uint            `json:"person_id" validate:"required"`
	Share     decimal.Decimal `json:"share"`
	IsFounder bool            `json:"is_founder"`
}

func (r ShareholdingRequest) check() error {
	if !r.Share.IsPositive() {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "share must be positive")
	}
	return nil
}

func (r ShareholdingRequest) apply(s *models.Shareholding) {
	s.CompanyID = r.CompanyID
	s.PersonID = r.PersonID
	s.Share = r.Share
	s.IsFounder = r.IsFounder
}

// ContributionRequest is one line of a capital increase
type ContributionRequest struct {
	PersonID uint            `json:"person_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

// CapitalIncreaseRequest is the payload of POST /companies/:id/capital-increase
type CapitalIncreaseRequest struct {
	Contributions []ContributionRequest `json:"contributions" validate:"required,min=1,dive"`
}

// pagination reads skip and limit query parameters
func pagination(c echo.Context) (skip, limit int, err error) {
	limit = defaultLimit
	err = echo.QueryParamsBinder(c).
		Int("skip", &skip).
		Int("limit", &limit).
		BindError()
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "skip and limit must be integers")
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	return skip, limit, nil
}

// idParam parses a numeric path parameter
func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// bindAndValidate decodes the body into req and runs the struct validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}

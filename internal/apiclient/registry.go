package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"company_registry/internal/cache"
	"company_registry/internal/models"
)

// CompanyInput is the payload of CreateCompany
type CompanyInput struct {
	Name         string          `json:"name"`
	RegCode      string          `json:"reg_code"`
	FoundingDate models.Date     `json:"founding_date"`
	Capital      decimal.Decimal `json:"capital"`
}

// PersonInput is the payload of CreatePerson
type PersonInput struct {
	Type      models.PersonType `json:"type"`
	FirstName string            `json:"first_name,omitempty"`
	LastName  string            `json:"last_name,omitempty"`
	IDCode    string            `json:"id_code,omitempty"`
	LegalName string            `json:"legal_name,omitempty"`
	RegCode   string            `json:"reg_code,omitempty"`
}

// ShareholdingInput is the payload of CreateShareholding
type ShareholdingInput struct {
	CompanyID uint            `json:"company_id"`
	PersonID  uint            `json:"person_id"`
	Share     decimal.Decimal `json:"share"`
	IsFounder bool            `json:"is_founder"`
}

// Contribution is one shareholder's part of a capital increase
type Contribution struct {
	PersonID uint            `json:"person_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// CompanyFilter narrows ListCompanies
type CompanyFilter struct {
	Name  string
	Skip  int
	Limit int
}

func companyKey(id uint) string {
	return "company:" + strconv.FormatUint(uint64(id), 10)
}

// ListCompanies lists companies ordered by id
func (c *Client) ListCompanies(ctx context.Context, f CompanyFilter) ([]models.Company, error) {
	q := pageQuery(f.Skip, f.Limit)
	if f.Name != "" {
		q.Set("name", f.Name)
	}

	var companies []models.Company
	if err := c.do(ctx, http.MethodGet, "companies", q, nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// GetCompany fetches a company with its shareholders
func (c *Client) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	company, err := cache.GetOrSet(ctx, c.cache, companyKey(id), companyCacheTTL, func() (models.Company, error) {
		var company models.Company
		err := c.do(ctx, http.MethodGet, fmt.Sprintf("companies/%d", id), nil, nil, &company)
		return company, err
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// CreateCompany registers a company without shareholders
func (c *Client) CreateCompany(ctx context.Context, in CompanyInput) (*models.Company, error) {
	var company models.Company
	if err := c.do(ctx, http.MethodPost, "companies", nil, in, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// IncreaseCapital applies contributions to a company's capital and returns
// the updated company
func (c *Client) IncreaseCapital(ctx context.Context, companyID uint, contributions []Contribution) (*models.Company, error) {
	body := struct {
		Contributions []Contribution `json:"contributions"`
	}{contributions}

	var company models.Company
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("companies/%d/capital-increase", companyID), nil, body, &company)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Delete(ctx, companyKey(companyID)); err != nil {
		c.logger.Warnw("failed to invalidate company cache", "company_id", companyID, "error", err)
	}
	return &company, nil
}

// ListPersons lists persons, optionally of one type
func (c *Client) ListPersons(ctx context.Context, personType models.PersonType, skip, limit int) ([]models.Person, error) {
	q := pageQuery(skip, limit)
	if personType != "" {
		q.Set("type", string(personType))
	}

	var persons []models.Person
	if err := c.do(ctx, http.MethodGet, "persons", q, nil, &persons); err != nil {
		return nil, err
	}
	return persons, nil
}

// CreatePerson creates an individual or a legal entity
func (c *Client) CreatePerson(ctx context.Context, in PersonInput) (*models.Person, error) {
	var person models.Person
	if err := c.do(ctx, http.MethodPost, "persons", nil, in, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// CreateShareholding attaches a person to a company
func (c *Client) CreateShareholding(ctx context.Context, in ShareholdingInput) (*models.Shareholding, error) {
	var holding models.Shareholding
	if err := c.do(ctx, http.MethodPost, "shareholdings", nil, in, &holding); err != nil {
		return nil, err
	}

	if err := c.cache.Delete(ctx, companyKey(in.CompanyID)); err != nil {
		c.logger.Warnw("failed to invalidate company cache", "company_id", in.CompanyID, "error", err)
	}
	return &holding, nil
}

// Search finds companies by name, registry code or shareholder
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Company, error) {
	q := pageQuery(0, limit)
	q.Set("q", query)

	var companies []models.Company
	if err := c.do(ctx, http.MethodGet, "search", q, nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// Ping checks that the API answers its health endpoint
func (c *Client) Ping(ctx context.Context) error {
	u := c.base.ResolveReference(&url.URL{Path: "health"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("api health check returned " + resp.Status)
	}
	return nil
}

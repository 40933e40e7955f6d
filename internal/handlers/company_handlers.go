package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"company_registry/internal/metrics"
	"company_registry/internal/models"
	"company_registry/internal/services"
)

type CompanyHandler struct {
	db      *gorm.DB
	capital *services.CapitalService
	logger  *zap.SugaredLogger
}

func NewCompanyHandler(db *gorm.DB, capital *services.CapitalService, logger *zap.SugaredLogger) *CompanyHandler {
	return &CompanyHandler{db: db, capital: capital, logger: logger}
}

// CreateCompany registers a new company
func (h *CompanyHandler) CreateCompany(c echo.Context) error {
	var req CompanyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := req.check(); err != nil {
		return err
	}

	db := h.db.WithContext(c.Request().Context())
	if err := h.ensureUniqueRegCode(db, req.RegCode, 0); err != nil {
		return err
	}

	var company models.Company
	req.apply(&company)

	if err := db.Create(&company).Error; err != nil {
		return h.writeError(err, "Failed to create company")
	}

	return c.JSON(http.StatusCreated, company)
}

// ListCompanies returns companies filtered by name and founding date
func (h *CompanyHandler) ListCompanies(c echo.Context) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return err
	}

	query := h.db.WithContext(c.Request().Context()).Model(&models.Company{})

	if name := strings.TrimSpace(c.QueryParam("name")); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if after := c.QueryParam("founded_after"); after != "" {
		date, err := models.ParseDate(after)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "founded_after must use the YYYY-MM-DD format")
		}
		query = query.Where("founding_date >= ?", date)
	}

	companies := []models.Company{}
	if err := query.Order("id").Offset(skip).Limit(limit).Find(&companies).Error; err != nil {
		h.logger.Errorw("failed to list companies", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch companies")
	}

	return c.JSON(http.StatusOK, companies)
}

// GetCompany returns a company with its shareholders
func (h *CompanyHandler) GetCompany(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var company models.Company
	err = h.db.WithContext(c.Request().Context()).
		Preload("Shareholdings", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Shareholdings.Person").
		First(&company, id).Error
	if err != nil {
		return notFoundOr(err, "Company not found")
	}

	return c.JSON(http.StatusOK, company)
}

// UpdateCompany replaces a company's fields
func (h *CompanyHandler) UpdateCompany(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req CompanyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := req.check(); err != nil {
		return err
	}

	db := h.db.WithContext(c.Request().Context())

	var company models.Company
	if err := db.First(&company, id).Error; err != nil {
		return notFoundOr(err, "Company not found")
	}
	if err := h.ensureUniqueRegCode(db, req.RegCode, company.ID); err != nil {
		return err
	}

	req.apply(&company)
	if err := db.Save(&company).Error; err != nil {
		return h.writeError(err, "Failed to update company")
	}

	return c.JSON(http.StatusOK, company)
}

// DeleteCompany removes a company and its shareholdings
func (h *CompanyHandler) DeleteCompany(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	err = h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, id).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Shareholding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&company).Error
	})
	if err != nil {
		return notFoundOr(err, "Company not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// IncreaseCapital applies a capital increase and returns the updated company
func (h *CompanyHandler) IncreaseCapital(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req CapitalIncreaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	contributions := make([]services.Contribution, len(req.Contributions))
	for i, line := range req.Contributions {
		contributions[i] = services.Contribution{PersonID: line.PersonID, Amount: line.Amount}
	}

	company, err := h.capital.IncreaseCapital(c.Request().Context(), id, contributions)
	switch {
	case errors.Is(err, services.ErrCompanyNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Company not found")
	case errors.Is(err, services.ErrPersonNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Person not found")
	case errors.Is(err, services.ErrInvalidContribution), errors.Is(err, services.ErrNoContributions):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		h.logger.Errorw("capital increase failed", "company_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to increase capital")
	}

	metrics.CapitalIncreases.Inc()
	return c.JSON(http.StatusOK, company)
}

// Search finds companies by name, registry code or shareholder
func (h *CompanyHandler) Search(c echo.Context) error {
	_, limit, err := pagination(c)
	if err != nil {
		return err
	}

	companies, err := services.SearchCompanies(c.Request().Context(), h.db, c.QueryParam("q"), limit)
	if err != nil {
		h.logger.Errorw("search failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Search failed")
	}

	return c.JSON(http.StatusOK, companies)
}

func (h *CompanyHandler) ensureUniqueRegCode(db *gorm.DB, regCode string, exceptID uint) error {
	var count int64
	if err := db.Model(&models.Company{}).Where("reg_code = ? AND id <> ?", regCode, exceptID).Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error").SetInternal(err)
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusConflict, "Company with this registry code already exists")
	}
	return nil
}

func (h *CompanyHandler) writeError(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return echo.NewHTTPError(http.StatusConflict, "Company with this registry code already exists")
	}
	h.logger.Errorw(message, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, message)
}

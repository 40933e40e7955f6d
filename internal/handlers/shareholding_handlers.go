package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"company_registry/internal/models"
)

type ShareholdingHandler struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewShareholdingHandler(db *gorm.DB, logger *zap.SugaredLogger) *ShareholdingHandler {
	return &ShareholdingHandler{db: db, logger: logger}
}

// CreateShareholding links a person to a company
func (h *ShareholdingHandler) CreateShareholding(c echo.Context) error {
	var req ShareholdingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := req.check(); err != nil {
		return err
	}

	db := h.db.WithContext(c.Request().Context())
	if err := ensureParties(db, req.CompanyID, req.PersonID); err != nil {
		return err
	}

	var holding models.Shareholding
	req.apply(&holding)

	if err := db.Create(&holding).Error; err != nil {
		h.logger.Errorw("failed to create shareholding", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create shareholding")
	}

	return c.JSON(http.StatusCreated, holding)
}

// ListShareholdings returns shareholdings filtered by company or person
func (h *ShareholdingHandler) ListShareholdings(c echo.Context) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return err
	}

	var companyID, personID uint
	if err := echo.QueryParamsBinder(c).Uint("company_id", &companyID).Uint("person_id", &personID).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "company_id and person_id must be integers")
	}

	query := h.db.WithContext(c.Request().Context()).Model(&models.Shareholding{})
	if companyID > 0 {
		query = query.Where("company_id = ?", companyID)
	}
	if personID > 0 {
		query = query.Where("person_id = ?", personID)
	}

	holdings := []models.Shareholding{}
	if err := query.Order("id").Offset(skip).Limit(limit).Find(&holdings).Error; err != nil {
		h.logger.Errorw("failed to list shareholdings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch shareholdings")
	}

	return c.JSON(http.StatusOK, holdings)
}

// GetShareholding returns a shareholding with its company and person
func (h *ShareholdingHandler) GetShareholding(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var holding models.Shareholding
	if err := h.db.WithContext(c.Request().Context()).Preload("Company").Preload("Person").First(&holding, id).Error; err != nil {
		return notFoundOr(err, "Shareholding not found")
	}

	return c.JSON(http.StatusOK, holding)
}

// UpdateShareholding replaces a shareholding's fields
func (h *ShareholdingHandler) UpdateShareholding(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req ShareholdingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := req.check(); err != nil {
		return err
	}

	db := h.db.WithContext(c.Request().Context())

	var holding models.Shareholding
	if err := db.First(&holding, id).Error; err != nil {
		return notFoundOr(err, "Shareholding not found")
	}
	if err := ensureParties(db, req.CompanyID, req.PersonID); err != nil {
		return err
	}

	req.apply(&holding)
	if err := db.Save(&holding).Error; err != nil {
		h.logger.Errorw("failed to update shareholding", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update shareholding")
	}

	return c.JSON(http.StatusOK, holding)
}

// DeleteShareholding removes a shareholding
func (h *ShareholdingHandler) DeleteShareholding(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	result := h.db.WithContext(c.Request().Context()).Delete(&models.Shareholding{}, id)
	if result.Error != nil {
		return notFoundOr(result.Error, "Shareholding not found")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Shareholding not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// ensureParties checks the company and the person of a shareholding exist
func ensureParties(db *gorm.DB, companyID, personID uint) error {
	var count int64
	if err := db.Model(&models.Company{}).Where("id = ?", companyID).Count(&count).Error; err != nil {
		return notFoundOr(err, "Company not found")
	}
	if count == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Company not found")
	}
	if err := db.Model(&models.Person{}).Where("id = ?", personID).Count(&count).Error; err != nil {
		return notFoundOr(err, "Person not found")
	}
	if count == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Person not found")
	}
	return nil
}

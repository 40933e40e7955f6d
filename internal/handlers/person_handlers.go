package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"company_registry/internal/models"
)

type PersonHandler struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewPersonHandler(db *gorm.DB, logger *zap.SugaredLogger) *PersonHandler {
	return &PersonHandler{db: db, logger: logger}
}

// CreatePerson registers a new individual or legal person
func (h *PersonHandler) CreatePerson(c echo.Context) error {
	var req PersonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var person models.Person
	req.apply(&person)

	if err := h.db.WithContext(c.Request().Context()).Create(&person).Error; err != nil {
		h.logger.Errorw("failed to create person", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create person")
	}

	return c.JSON(http.StatusCreated, person)
}

// ListPersons returns persons, optionally filtered by type
func (h *PersonHandler) ListPersons(c echo.Context) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return err
	}

	query := h.db.WithContext(c.Request().Context()).Model(&models.Person{})
	if personType := c.QueryParam("type"); personType != "" {
		query = query.Where("type = ?", personType)
	}

	persons := []models.Person{}
	if err := query.Order("id").Offset(skip).Limit(limit).Find(&persons).Error; err != nil {
		h.logger.Errorw("failed to list persons", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch persons")
	}

	return c.JSON(http.StatusOK, persons)
}

// GetPerson returns a person with their shareholdings
func (h *PersonHandler) GetPerson(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var person models.Person
	if err := h.db.WithContext(c.Request().Context()).Preload("Shareholdings").First(&person, id).Error; err != nil {
		return notFoundOr(err, "Person not found")
	}

	return c.JSON(http.StatusOK, person)
}

// UpdatePerson replaces a person's fields
func (h *PersonHandler) UpdatePerson(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req PersonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	db := h.db.WithContext(c.Request().Context())

	var person models.Person
	if err := db.First(&person, id).Error; err != nil {
		return notFoundOr(err, "Person not found")
	}

	req.apply(&person)
	if err := db.Save(&person).Error; err != nil {
		h.logger.Errorw("failed to update person", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update person")
	}

	return c.JSON(http.StatusOK, person)
}

// DeletePerson removes a person and their shareholdings
func (h *PersonHandler) DeletePerson(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	err = h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		var person models.Person
		if err := tx.First(&person, id).Error; err != nil {
			return err
		}
		if err := tx.Where("person_id = ?", id).Delete(&models.Shareholding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&person).Error
	})
	if err != nil {
		return notFoundOr(err, "Person not found")
	}

	return c.NoContent(http.StatusNoContent)
}

// notFoundOr maps gorm.ErrRecordNotFound to 404 and anything else to 500
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Database error").SetInternal(err)
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	APIVersion = "1.0.0"
	APIPrefix  = "/api/v1"
)

// RootHandler serves the service banner and health check
type RootHandler struct {
	db *gorm.DB
}

func NewRootHandler(db *gorm.DB) *RootHandler {
	return &RootHandler{db: db}
}

// Index describes the API
func (h *RootHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message":       "Welcome to Company Registration API",
		"version":       APIVersion,
		"documentation": "/docs",
		"api_prefix":    APIPrefix,
	})
}

// Health reports whether the database answers
func (h *RootHandler) Health(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// Docs lists every registered route
func (h *RootHandler) Docs(c echo.Context) error {
	return c.JSON(http.StatusOK, c.Echo().Routes())
}

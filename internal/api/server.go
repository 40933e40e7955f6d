package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"company_registry/internal/handlers"
	appMiddleware "company_registry/internal/middleware"
	"company_registry/internal/services"
)

// NewServer wires the registry API on a fresh echo instance
func NewServer(db *gorm.DB, logger *zap.SugaredLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = appMiddleware.JSONErrorHandler(logger)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(appMiddleware.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return true, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))

	rootHandler := handlers.NewRootHandler(db)
	personHandler := handlers.NewPersonHandler(db, logger)
	companyHandler := handlers.NewCompanyHandler(db, services.NewCapitalService(db, logger), logger)
	shareholdingHandler := handlers.NewShareholdingHandler(db, logger)

	e.GET("/", rootHandler.Index)
	e.GET("/health", rootHandler.Health)
	e.GET("/docs", rootHandler.Docs)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group(handlers.APIPrefix)

	v1.POST("/persons", personHandler.CreatePerson)
	v1.GET("/persons", personHandler.ListPersons)
	v1.GET("/persons/:id", personHandler.GetPerson)
	v1.PUT("/persons/:id", personHandler.UpdatePerson)
	v1.DELETE("/persons/:id", personHandler.DeletePerson)

	v1.POST("/companies", companyHandler.CreateCompany)
	v1.GET("/companies", companyHandler.ListCompanies)
	v1.GET("/companies/:id", companyHandler.GetCompany)
	v1.PUT("/companies/:id", companyHandler.UpdateCompany)
	v1.DELETE("/companies/:id", companyHandler.DeleteCompany)
	v1.POST("/companies/:id/capital-increase", companyHandler.IncreaseCapital)

	v1.POST("/shareholdings", shareholdingHandler.CreateShareholding)
	v1.GET("/shareholdings", shareholdingHandler.ListShareholdings)
	v1.GET("/shareholdings/:id", shareholdingHandler.GetShareholding)
	v1.PUT("/shareholdings/:id", shareholdingHandler.UpdateShareholding)
	v1.DELETE("/shareholdings/:id", shareholdingHandler.DeleteShareholding)

	v1.GET("/search", companyHandler.Search)

	return e
}

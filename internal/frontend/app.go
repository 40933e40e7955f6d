// Package frontend assembles the web front end: one echo instance carrying
// the route table, the form handlers, static assets and the shared layout.
package frontend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"company_registry/internal/apiclient"
	"company_registry/internal/cache"
	"company_registry/internal/config"
	appMiddleware "company_registry/internal/middleware"
	"company_registry/internal/routes"
	"company_registry/web"
	"company_registry/web/templates/shared"
)

const shutdownTimeout = 10 * time.Second

// App is the running front end
type App struct {
	cfg      config.Config
	defaults apiclient.Defaults
	echo     *echo.Echo
	routes   *routes.Table
	logger   *zap.SugaredLogger
}

// New builds the front end. The API client defaults are fixed here for the
// lifetime of the App. A nil cache disables caching of API reads.
func New(cfg config.Config, logger *zap.SugaredLogger, rc *cache.RedisCache) (*App, error) {
	defaults := apiclient.Defaults{
		BaseURL:         cfg.APIBaseURL,
		WithCredentials: cfg.APIWithCredentials,
	}
	client, err := apiclient.New(defaults, apiclient.WithCache(rc), apiclient.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	base := config.NormalizeBasePath(cfg.BaseURL)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(appMiddleware.RequestLogger(logger))
	e.Use(middleware.Recover())

	v := &views{api: client, logger: logger, assetsURL: base + "/static"}
	table, err := routes.Default(routes.Views{
		Home:            v.loadHome,
		Company:         v.loadCompany,
		Register:        v.loadRegister,
		CapitalIncrease: v.loadCapitalIncrease,
		Search:          v.loadSearch,
	})
	if err != nil {
		return nil, err
	}
	v.routes = table

	if err := table.Register(e, base, logger); err != nil {
		return nil, err
	}

	// Form submissions post back to the page that rendered the form
	e.POST(base+"/register", v.submitRegistration)
	e.POST(base+"/company/:id/capital", v.submitCapitalIncrease)

	e.StaticFS(base+"/static", echo.MustSubFS(web.Static, "static"))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	home := table.URL(routes.NameHome)
	e.HTTPErrorHandler = appMiddleware.HTMLErrorHandler(logger, func(c echo.Context, title string) shared.PageProps {
		return v.pageProps(c, title)
	}, home)

	return &App{
		cfg:      cfg,
		defaults: defaults,
		echo:     e,
		routes:   table,
		logger:   logger,
	}, nil
}

// Defaults are the API client defaults the App was built with
func (a *App) Defaults() apiclient.Defaults {
	return a.defaults
}

// Routes is the App's route table
func (a *App) Routes() *routes.Table {
	return a.routes
}

// Handler serves the front end
func (a *App) Handler() http.Handler {
	return a.echo
}

// Start serves on the configured port until ctx is done, then shuts down gracefully
func (a *App) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infow("Web server starting", "port", a.cfg.Port, "base_url", a.cfg.BaseURL, "api", a.defaults.BaseURL)
		if err := a.echo.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.echo.Shutdown(shutdownCtx)
}

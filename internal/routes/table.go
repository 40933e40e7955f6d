// Package routes holds the front end's route table: an ordered, immutable
// list of path patterns, each naming the view rendered for it.
//
// Matching is echo's. The table only declares records, binds them to an
// echo instance and loads their views, eagerly at registration or
// deferred until the first navigation.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"company_registry/internal/metrics"
)

// RouteNameKey is the echo context key holding the name of the route being served
const RouteNameKey = "routeName"

// resolveKey marks a context that only asks which route matched
const resolveKey = "routes.resolve"

var (
	ErrAlreadyRegistered = errors.New("route table already registered")
	ErrNilView           = errors.New("loader returned no view")
)

// Loader builds the handler of a view
type Loader func() (echo.HandlerFunc, error)

// Route is one record of the table
type Route struct {
	Path string
	Name string
	Load Loader
	// Deferred routes run Load on first navigation instead of at Register.
	Deferred bool
}

// Match is the record serving a path together with its path parameters
type Match struct {
	Route  Route
	Params map[string]string
}

// Table is the route table. It is safe for concurrent use once registered.
type Table struct {
	entries []*entry
	byName  map[string]*entry

	mu       sync.RWMutex
	echo     *echo.Echo
	prefix   string
	patterns map[string]*entry
	logger   *zap.SugaredLogger
}

type entry struct {
	Route

	mu    sync.Mutex
	view  echo.HandlerFunc
	loads int
}

// NewTable validates the records and builds a table. Names must be unique,
// and so must path patterns once parameter names are ignored.
func NewTable(records ...Route) (*Table, error) {
	t := &Table{
		byName: make(map[string]*entry, len(records)),
		logger: zap.NewNop().Sugar(),
	}
	patterns := make(map[string]string, len(records))

	for _, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("route %q: name is required", r.Path)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %s: path %q must start with /", r.Name, r.Path)
		}
		if r.Load == nil {
			return nil, fmt.Errorf("route %s: loader is required", r.Name)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("route %s: duplicate name", r.Name)
		}
		shape := patternShape(r.Path)
		if other, dup := patterns[shape]; dup {
			return nil, fmt.Errorf("route %s: path %q is ambiguous with route %s", r.Name, r.Path, other)
		}
		patterns[shape] = r.Name

		e := &entry{Route: r}
		t.entries = append(t.entries, e)
		t.byName[r.Name] = e
	}

	return t, nil
}

// patternShape erases parameter names so /company/:id and /company/:slug compare equal
func patternShape(path string) string {
	segments := strings.Split(strings.TrimSuffix(path, "/"), "/")
	for i, s := range segments {
		switch {
		case strings.HasPrefix(s, ":"):
			segments[i] = ":"
		case strings.HasPrefix(s, "*"):
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

// Routes returns the records in declaration order
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Route
	}
	return out
}

// Lookup finds a record by name
func (t *Table) Lookup(name string) (Route, bool) {
	e, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return e.Route, true
}

// Register binds every record as a named GET route under prefix and loads
// the eager views. A table can be registered once.
func (t *Table) Register(e *echo.Echo, prefix string, logger *zap.SugaredLogger) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.echo != nil {
		return ErrAlreadyRegistered
	}
	if logger != nil {
		t.logger = logger
	}

	for _, en := range t.entries {
		if en.Deferred {
			continue
		}
		if _, err := en.load(t.logger); err != nil {
			return err
		}
	}

	t.patterns = make(map[string]*entry, len(t.entries))
	for _, en := range t.entries {
		path := joinPath(prefix, en.Path)
		r := e.GET(path, t.handler(en))
		r.Name = en.Name
		t.patterns[path] = en
	}

	t.echo = e
	t.prefix = prefix
	return nil
}

func joinPath(prefix, path string) string {
	if prefix != "" && path == "/" {
		return prefix
	}
	return prefix + path
}

// Resolve reports which record echo's router picks for path. Paths served
// by routes outside the table do not match.
func (t *Table) Resolve(path string) (Match, bool) {
	t.mu.RLock()
	e, patterns := t.echo, t.patterns
	t.mu.RUnlock()
	if e == nil {
		return Match{}, false
	}

	u, err := url.Parse(path)
	if err != nil {
		return Match{}, false
	}
	routePath := u.Path
	if u.RawPath != "" {
		routePath = u.RawPath
	}
	// navigation strips trailing slashes before routing
	if len(routePath) > 1 {
		routePath = strings.TrimRight(routePath, "/")
		if routePath == "" {
			routePath = "/"
		}
	}

	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return Match{}, false
	}
	c := e.NewContext(req, nil)
	e.Router().Find(http.MethodGet, routePath, c)
	if _, ours := patterns[c.Path()]; !ours {
		return Match{}, false
	}

	m := &Match{}
	c.Set(resolveKey, m)
	if err := c.Handler()(c); err != nil || m.Params == nil {
		return Match{}, false
	}
	return *m, true
}

// URL builds the path of a named route, or "" when the name is unknown
func (t *Table) URL(name string, params ...interface{}) string {
	t.mu.RLock()
	e := t.echo
	t.mu.RUnlock()
	if e == nil {
		return ""
	}
	return e.Reverse(name, params...)
}

// LoadCount reports how many times the loader of a route has run
func (t *Table) LoadCount(name string) int {
	e, ok := t.byName[name]
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

func (t *Table) handler(en *entry) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m, ok := c.Get(resolveKey).(*Match); ok {
			m.Route = en.Route
			m.Params = params(c)
			return nil
		}

		view, err := en.load(t.logger)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "This page could not be loaded.").SetInternal(err)
		}

		metrics.PageRenders.WithLabelValues(en.Name).Inc()
		c.Set(RouteNameKey, en.Name)
		return view(c)
	}
}

func params(c echo.Context) map[string]string {
	names := c.ParamNames()
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = c.Param(name)
	}
	return out
}

// load runs the loader once. Concurrent callers wait for the same load;
// a failed load is retried on the next call.
func (en *entry) load(logger *zap.SugaredLogger) (echo.HandlerFunc, error) {
	en.mu.Lock()
	defer en.mu.Unlock()

	if en.view != nil {
		return en.view, nil
	}

	start := time.Now()
	view, err := en.Load()
	en.loads++
	if err == nil && view == nil {
		err = ErrNilView
	}
	if err != nil {
		metrics.ViewLoads.WithLabelValues(en.Name, "error").Inc()
		logger.Errorw("view load failed", "route", en.Name, "error", err)
		return nil, fmt.Errorf("load view %s: %w", en.Name, err)
	}

	en.view = view
	metrics.ViewLoads.WithLabelValues(en.Name, "ok").Inc()
	logger.Debugw("view loaded", "route", en.Name, "deferred", en.Deferred, "took", time.Since(start))
	return view, nil
}

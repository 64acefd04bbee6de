package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql" // the pool probed by the health check

	"github.com/labstack/echo/v4"                             // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus"          // registry gatherer for /metrics
	"github.com/prometheus/client_golang/prometheus/promhttp" // metrics exposition handler

	"github.com/iliyamo/user-auth-service/internal/config"  // endpoint set names
	"github.com/iliyamo/user-auth-service/internal/handler" // import the handlers that implement business logic
)

// Handlers groups the handlers a process may mount. A nil handler leaves
// its endpoint set unmounted.
type Handlers struct {
	Auth  *handler.AuthHandler
	Reset *handler.ResetHandler
}

// route is one row of the static routing table.
type route struct {
	set    string
	method string
	path   string
	name   string
	fn     func(Handlers) echo.HandlerFunc
}

var routes = []route{
	{config.EndpointsSignup, "POST", "/signup", "signup", func(h Handlers) echo.HandlerFunc { return h.Auth.Signup }},
	{config.EndpointsSignup, "POST", "/api/signup", "signup", func(h Handlers) echo.HandlerFunc { return h.Auth.Signup }},
	{config.EndpointsSignup, "POST", "/check-email", "check_email", func(h Handlers) echo.HandlerFunc { return h.Auth.CheckEmail }},
	{config.EndpointsSignup, "POST", "/api/check-email", "check_email", func(h Handlers) echo.HandlerFunc { return h.Auth.CheckEmail }},
	{config.EndpointsLogin, "POST", "/login", "login", func(h Handlers) echo.HandlerFunc { return h.Auth.Login }},
	{config.EndpointsLogin, "POST", "/api/login", "login", func(h Handlers) echo.HandlerFunc { return h.Auth.Login }},
	{config.EndpointsReset, "POST", "/send_reset_link", "send_reset_link", func(h Handlers) echo.HandlerFunc { return h.Reset.SendResetLink }},
	{config.EndpointsReset, "POST", "/validate_token", "validate_token", func(h Handlers) echo.HandlerFunc { return h.Reset.ValidateToken }},
	{config.EndpointsReset, "POST", "/reset_password", "reset_password", func(h Handlers) echo.HandlerFunc { return h.Reset.ResetPassword }},
}

// Register mounts the always-on routes and every endpoint set enabled in
// cfg. Metrics are served from gatherer.
func Register(e *echo.Echo, cfg config.Config, db *sql.DB, h Handlers, gatherer prometheus.Gatherer) {
	index := map[string]string{
		"health":  "GET /health",
		"metrics": "GET /metrics",
	}
	for _, r := range routes {
		if !mounted(cfg, h, r.set) {
			continue
		}
		e.Add(r.method, r.path, r.fn(h))
		if _, seen := index[r.name]; !seen {
			index[r.name] = r.method + " " + r.path
		}
	}
	RegisterRoutes(e, db, index, gatherer)
}

// RegisterRoutes registers the routes every process serves: the endpoint
// index, the health checks and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB, index map[string]string, gatherer prometheus.Gatherer) {
	e.GET("/", handler.Index(index))
	// Health answers 200 while the process runs; the body reports the store.
	e.GET("/health", handler.Health(db))
	e.GET("/api/health", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

func mounted(cfg config.Config, h Handlers, set string) bool {
	if !cfg.Serves(set) {
		return false
	}
	if set == config.EndpointsReset {
		return h.Reset != nil
	}
	return h.Auth != nil
}

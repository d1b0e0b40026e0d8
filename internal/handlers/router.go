package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/namedivider/internal/platform/httpx"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 60 * time.Second
)

// RouteRegistrar mounts routes on r.
type RouteRegistrar func(r chi.Router)

// Option customises NewRouter.
type Option func(*routerConfig)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	metrics     http.Handler
	divide      RouteRegistrar
}

// NewRouter builds the API router: probes at the root, division under /api/v1 and at the
// unversioned /divide path used by older clients.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(requestTimeout),
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.NotFound(jsonError(httpx.CodeNotFound, http.StatusNotFound, "no route for %[2]s"))
	r.MethodNotAllowed(jsonError(httpx.CodeMethodNotAllowed, http.StatusMethodNotAllowed, "method %[1]s not allowed on %[2]s"))

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/health", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics)
	}

	if cfg.divide == nil {
		r.HandleFunc(apiPrefix+"/divide", jsonError(httpx.CodeNotImplemented, http.StatusNotImplemented, "%[2]s is not configured"))
		return r
	}
	r.Route(apiPrefix, func(api chi.Router) { cfg.divide(api) })
	cfg.divide(r)
	return r
}

// jsonError answers with an error envelope. format receives the method and path as %[1]s and %[2]s.
func jsonError(code string, status int, format string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		msg := fmt.Sprintf(format, req.Method, req.URL.Path)
		httpx.WriteError(req.Context(), w, httpx.NewError(code, msg, status))
	}
}

// WithMiddlewares appends global middleware after the request-id, real-ip and timeout defaults.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers sets the probe handlers.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithMetricsHandler exposes h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.metrics = h
	}
}

// WithDivideRoutes sets the registrar for the division endpoints.
func WithDivideRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.divide = reg
	}
}

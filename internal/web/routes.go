package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edgard/botbuilder/internal/logger"
)

// RegisteredRoute is a handler with the method, pattern and middleware it
// is mounted with. An empty Method accepts every method.
type RegisteredRoute struct {
	Method     string
	Pattern    string
	Handler    http.Handler
	Middleware []func(http.Handler) http.Handler
}

// Routes returns the page routes keyed by a stable name.
func (h *Handler) Routes() map[string]RegisteredRoute {
	return map[string]RegisteredRoute{
		"index": {
			Method:     http.MethodGet,
			Pattern:    "/",
			Handler:    http.HandlerFunc(h.index),
			Middleware: []func(http.Handler) http.Handler{noStore},
		},
		"submit": {
			Method:  http.MethodPost,
			Pattern: "/setup",
			Handler: http.HandlerFunc(h.submit),
		},
		"health": {
			Method:  http.MethodGet,
			Pattern: "/healthz",
			Handler: http.HandlerFunc(h.health),
		},
	}
}

// NewRouter mounts routes behind the shared middleware stack.
func NewRouter(log *slog.Logger, routes map[string]RegisteredRoute) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "router")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)

	for name, route := range routes {
		if route.Handler == nil {
			log.Warn("Skipping registration for nil handler", "route", name, "pattern", route.Pattern)
			continue
		}

		mounted := r.With(route.Middleware...)
		if route.Method == "" {
			mounted.Handle(route.Pattern, route.Handler)
		} else {
			mounted.Method(route.Method, route.Pattern, route.Handler)
		}
		log.Debug("Registered route", "route", name, "method", route.Method, "pattern", route.Pattern,
			"middleware_count", len(route.Middleware))
	}

	log.Info("Registered HTTP routes", "count", len(routes))
	return r
}

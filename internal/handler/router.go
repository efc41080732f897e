package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/moneymanager/moneymanager/internal/middleware"
)

// RouterConfig wires handlers and middleware into the API router.
type RouterConfig struct {
	Logger       *slog.Logger
	Transactions *TransactionHandler
	Categories   *CategoryHandler
	Health       *HealthHandler
	// Metrics is optional; /metrics is not mounted when nil.
	Metrics *MetricsHandler

	Auth middleware.AuthConfig
	// RateLimit is skipped when its Limiter is nil.
	RateLimit   middleware.RateLimitConfig
	Security    middleware.SecurityConfig
	CORS        middleware.CORSConfig
	MaxBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := New()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}

	// Health endpoints (no auth required)
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	r.Get("/", h.Info)

	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = logger
	}
	if cfg.RateLimit.Logger == nil {
		cfg.RateLimit.Logger = logger
	}

	// Every /api route acts on behalf of the verified caller.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Auth))
		if cfg.RateLimit.Limiter != nil {
			r.Use(middleware.RateLimit(cfg.RateLimit))
		}

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.Transactions.List)
			r.Post("/", cfg.Transactions.Create)
			r.Get("/{id}", cfg.Transactions.Get)
			r.Put("/{id}", cfg.Transactions.Update)
			r.Delete("/{id}", cfg.Transactions.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", cfg.Categories.List)
			r.Post("/", cfg.Categories.Create)
			r.Get("/{id}", cfg.Categories.Get)
			r.Put("/{id}", cfg.Categories.Update)
			r.Delete("/{id}", cfg.Categories.Delete)
			r.Post("/{id}/subcategories", cfg.Categories.AddSubCategory)
			r.Delete("/{id}/subcategories/{name}", cfg.Categories.RemoveSubCategory)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

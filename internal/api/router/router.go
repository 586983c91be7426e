// Package router wires every handler onto the chi tree: a public booking
// surface behind tenant scoping and rate limiting, and an admin surface
// behind JWT auth.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/velvetdesk/salon-api/internal/appointments"
	"github.com/velvetdesk/salon-api/internal/catalog"
	"github.com/velvetdesk/salon-api/internal/finance"
	"github.com/velvetdesk/salon-api/internal/http/handlers"
	httpmiddleware "github.com/velvetdesk/salon-api/internal/http/middleware"
	"github.com/velvetdesk/salon-api/internal/inventory"
	"github.com/velvetdesk/salon-api/internal/professionals"
	"github.com/velvetdesk/salon-api/internal/settings"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	Bookings      *appointments.Handler
	Professionals *professionals.Handler
	Catalog       *catalog.Handler
	Settings      *settings.Handler
	Inventory     *inventory.Handler
	Finance       *finance.Handler
	Dashboard     *handlers.DashboardHandler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	MetricsHandler     http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public booking surface: slot discovery and proposing. Every request
	// carries the tenant header; the rate limiter shields the slot grid.
	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.RequireTenant)
		if cfg.RateLimitPerSecond > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}
		if cfg.Bookings != nil {
			public.Mount("/bookings", cfg.Bookings.PublicRoutes())
		}
	})

	// Admin surface: everything the salon staff touches.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		admin.Use(httpmiddleware.RequireTenant)
		if cfg.Bookings != nil {
			admin.Mount("/bookings", cfg.Bookings.AdminRoutes())
		}
		if cfg.Professionals != nil {
			admin.Mount("/professionals", cfg.Professionals.Routes())
		}
		if cfg.Catalog != nil {
			admin.Mount("/services", cfg.Catalog.Routes())
		}
		if cfg.Settings != nil {
			admin.Mount("/settings", cfg.Settings.Routes())
		}
		if cfg.Inventory != nil {
			admin.Mount("/products", cfg.Inventory.Routes())
		}
		if cfg.Finance != nil {
			admin.Mount("/finance", cfg.Finance.Routes())
		}
		if cfg.Dashboard != nil {
			admin.Mount("/dashboard", cfg.Dashboard.Routes())
		}
	})

	return r
}

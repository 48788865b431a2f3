// Package router assembles the HTTP surface: middleware stack plus the
// wizard, catalog, and operational routes.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/cleanbook/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/cleanbook/internal/http/middleware"
	"github.com/wolfman30/cleanbook/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Wizard             *handlers.WizardHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Session creation rate limiting; a zero rate disables it. The sweep
	// and idle windows control bucket eviction and fall back to the
	// limiter's defaults when zero.
	SessionRatePerSec     float64
	SessionRateBurst      int
	SessionRateSweepEvery time.Duration
	SessionRateIdleAfter  time.Duration
}

// New creates a new Chi router with all routes configured.
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

	r.Get("/health", cfg.Wizard.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/services", cfg.Wizard.ListServices)
	r.Get("/slots", cfg.Wizard.ListSlots)
	r.Get("/customers/bookings", cfg.Wizard.CustomerBookings)

	r.Route("/sessions", func(r chi.Router) {
		if cfg.SessionRatePerSec > 0 {
			limit := httpmiddleware.RateLimit(
				cfg.SessionRatePerSec,
				cfg.SessionRateBurst,
				httpmiddleware.WithEviction(cfg.SessionRateSweepEvery, cfg.SessionRateIdleAfter),
			)
			r.With(limit).Post("/", cfg.Wizard.CreateSession)
		} else {
			r.Post("/", cfg.Wizard.CreateSession)
		}
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.Wizard.GetSession)
			r.Patch("/", cfg.Wizard.UpdateSession)
			r.Post("/advance", cfg.Wizard.Advance)
			r.Post("/back", cfg.Wizard.Back)
			r.Post("/reset", cfg.Wizard.Reset)
			r.Post("/submit", cfg.Wizard.Submit)
		})
	})

	return r
}

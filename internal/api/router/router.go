package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicdesk/appointment-platform/internal/availability"
	httpmiddleware "github.com/clinicdesk/appointment-platform/internal/http/middleware"
	"github.com/clinicdesk/appointment-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Availability       *availability.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Rate limiting (optional; zero disables it)
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Availability != nil {
		r.Route("/clinics/{clinicID}/availability", func(r chi.Router) {
			r.Get("/slots", cfg.Availability.GetSlots)
			r.Get("/slots/next", cfg.Availability.GetNextSlot)
			r.Get("/capacity", cfg.Availability.GetCapacity)
			r.Get("/capacity/range", cfg.Availability.GetCapacityRange)
			r.Get("/doctors/best", cfg.Availability.GetBestDoctor)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "ok"}`))
}

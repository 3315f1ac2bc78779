package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/nail-studio-api/internal/booking"
	"github.com/wolfman30/nail-studio-api/internal/catalog"
	"github.com/wolfman30/nail-studio-api/internal/contact"
	"github.com/wolfman30/nail-studio-api/internal/http/httpjson"
	httpmiddleware "github.com/wolfman30/nail-studio-api/internal/http/middleware"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unmounted.
type Config struct {
	Logger             *logging.Logger
	CatalogHandler     *catalog.Handler
	BookingHandler     *booking.Handler
	ChatHandler        http.Handler
	ContactHandler     *contact.Handler
	MetricsHandler     http.Handler
	RateLimiter        *httpmiddleware.RateLimiter
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Error(w, logger, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Error(w, logger, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpjson.Write(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter, logger))
		}
		if cfg.ChatHandler != nil {
			api.Method(http.MethodPost, "/chat", cfg.ChatHandler)
		}
		if cfg.CatalogHandler != nil {
			api.Get("/services", cfg.CatalogHandler.ListServices)
			api.Get("/team", cfg.CatalogHandler.ListTeam)
		}
		if cfg.BookingHandler != nil {
			api.Route("/booking", cfg.BookingHandler.Routes)
		}
		if cfg.ContactHandler != nil {
			api.Post("/contact", cfg.ContactHandler.SubmitContact)
			api.Post("/newsletter", cfg.ContactHandler.Subscribe)
		}
	})

	return r
}

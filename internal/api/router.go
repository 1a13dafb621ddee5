package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/api/middleware"
	"github.com/shelftalk/shelftalk/internal/books"
	"github.com/shelftalk/shelftalk/internal/chat"
	"github.com/shelftalk/shelftalk/internal/handlers"
)

// Options carries the dependencies the router wires together.
type Options struct {
	Logger       zerolog.Logger
	Store        *chat.Store
	Dispatcher   *chat.Dispatcher
	Catalog      books.Catalog
	Redis        *redis.Client // optional, enables rate limiting
	DemoMode     bool
	PollInterval time.Duration

	RateLimitWhitelist []string
	AutoBlockEnabled   bool
}

// NewRouter creates and configures the HTTP router.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (only when Redis is configured)
	if opts.Redis != nil {
		limiter := middleware.NewRateLimiter(opts.Redis, opts.Logger, middleware.RateLimiterConfig{
			Whitelist:        opts.RateLimitWhitelist,
			AutoBlockEnabled: opts.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - the chat widget is embedded on catalog pages served elsewhere
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(handlers.Options{
		Store:        opts.Store,
		Dispatcher:   opts.Dispatcher,
		Catalog:      opts.Catalog,
		Redis:        opts.Redis,
		Logger:       opts.Logger,
		DemoMode:     opts.DemoMode,
		PollInterval: opts.PollInterval,
	})

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	// Chat pipeline
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/send", h.SendMessage)
		r.Get("/stream/{sessionID}", h.Stream)
		r.Get("/history/{sessionID}", h.History)
		r.Delete("/clear/{sessionID}", h.Clear)
		r.Get("/demo-status", h.DemoStatus)
	})

	// Assistant integration (catalog lookups)
	r.Route("/api/ai", func(r chi.Router) {
		r.Get("/search", h.SearchBooks)
		r.Get("/recommend", h.Recommend)
		r.Post("/user-action", h.UserAction)
		r.Get("/book-details/{id}", h.BookDetails)
		r.Get("/genres", h.Genres)
	})

	return r
}

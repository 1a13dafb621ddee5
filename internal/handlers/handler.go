package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/books"
	"github.com/shelftalk/shelftalk/internal/chat"
)

// sessionIDRegex validates session identifiers: alphanumeric, hyphens,
// underscores, 1-64 chars.
var sessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store      *chat.Store
	dispatcher *chat.Dispatcher
	catalog    books.Catalog
	redis      *redis.Client // optional, health check only
	logger     zerolog.Logger

	demoMode     bool
	pollInterval time.Duration
}

// Options configures a Handler.
type Options struct {
	Store        *chat.Store
	Dispatcher   *chat.Dispatcher
	Catalog      books.Catalog
	Redis        *redis.Client
	Logger       zerolog.Logger
	DemoMode     bool
	PollInterval time.Duration
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(opts Options) *Handler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	return &Handler{
		store:        opts.Store,
		dispatcher:   opts.Dispatcher,
		catalog:      opts.Catalog,
		redis:        opts.Redis,
		logger:       opts.Logger,
		demoMode:     opts.DemoMode,
		pollInterval: opts.PollInterval,
	}
}

// mode returns the deployment mode string for API responses.
func (h *Handler) mode() string {
	if h.demoMode {
		return "demo"
	}
	return "live"
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// validSessionID reports whether id is an acceptable session identifier.
func validSessionID(id string) bool {
	return sessionIDRegex.MatchString(id)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/statuscard/internal/domain/model"
	"github.com/okian/statuscard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface keeps the
// handler layer loosely coupled to the card service.
type Dependencies interface {
	// ResolveUsername applies the default identity and validates the name.
	ResolveUsername(raw string) (string, error)
	// Card renders the status card document of username.
	Card(ctx context.Context, username string) ([]byte, error)
}

// Default cache lifetime of a rendered card, in seconds.
const defaultCacheMaxAge = 300

// Server wires HTTP routes for the card API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	cardHandler    *CardHandler
	faviconHandler *FaviconHandler
}

type serverOptions struct {
	cacheMaxAge int
	logger      logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverOptions)

// WithCacheMaxAge sets the public cache lifetime in seconds; 0 disables
// caching.
func WithCacheMaxAge(seconds int) Option {
	return func(o *serverOptions) {
		if seconds >= 0 {
			o.cacheMaxAge = seconds
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{cacheMaxAge: defaultCacheMaxAge}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}

	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		cardHandler:    NewCardHandler(deps, o.cacheMaxAge, o.logger),
		faviconHandler: NewFaviconHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/favicon.ico", MetricsMiddleware(s.faviconHandler.HandleFavicon, "favicon"))

	card := RequestIDMiddleware(MetricsMiddleware(s.cardHandler.HandleCard, "card"))
	mux.HandleFunc("/card", card)
	mux.HandleFunc("/api/card", card)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", noCache)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// statusFor translates an error kind to a response status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, model.ErrInvalidUsername):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNetworkTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

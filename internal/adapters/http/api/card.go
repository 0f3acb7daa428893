package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/statuscard/pkg/logger"
)

const (
	svgContentType = "image/svg+xml; charset=utf-8"
	noCache        = "no-cache, no-store, must-revalidate"
	errorPrefix    = "Error generating stats card: "
)

// CardHandler serves rendered status cards.
type CardHandler struct {
	deps        Dependencies
	cacheMaxAge int
	logger      logger.Logger
}

// NewCardHandler creates a new card handler.
func NewCardHandler(deps Dependencies, cacheMaxAge int, l logger.Logger) *CardHandler {
	return &CardHandler{deps: deps, cacheMaxAge: cacheMaxAge, logger: l}
}

// HandleCard handles GET /card?username=... requests.
func (h *CardHandler) HandleCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeText(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed.Error())
		return
	}

	ctx := r.Context()
	log := h.logger.With(logger.String("request_id", RequestIDFrom(ctx)))

	username, err := h.deps.ResolveUsername(r.URL.Query().Get("username"))
	if err != nil {
		log.Debug(ctx, "rejected username", logger.Error(err))
		writeText(w, http.StatusBadRequest, fmt.Sprintf("Invalid username: %v", err))
		return
	}

	doc, err := h.deps.Card(ctx, username)
	if err != nil {
		status := statusFor(err)
		log.Error(ctx, "card generation failed",
			logger.String("username", username),
			logger.Int("status", status),
			logger.Error(err),
		)
		writeText(w, status, errorPrefix+err.Error())
		return
	}

	w.Header().Set("Content-Type", svgContentType)
	w.Header().Set("Cache-Control", h.cacheControl())
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(doc)
}

func (h *CardHandler) cacheControl() string {
	if h.cacheMaxAge <= 0 {
		return noCache
	}
	return fmt.Sprintf("public, max-age=%d, s-maxage=%d", h.cacheMaxAge, h.cacheMaxAge)
}

// FaviconHandler answers favicon probes with no content.
type FaviconHandler struct{}

// NewFaviconHandler creates a new favicon handler.
func NewFaviconHandler() *FaviconHandler {
	return &FaviconHandler{}
}

// HandleFavicon handles GET /favicon.ico requests.
func (h *FaviconHandler) HandleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

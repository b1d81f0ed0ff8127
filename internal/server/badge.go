package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/desertthunder/nowplaying/internal/widget"
)

// BadgeHandler renders the SVG badge for the user named by ?id.
type BadgeHandler struct {
	renderer    tasks.Renderer
	cacheMaxAge int
	logger      *log.Logger
}

// NewBadgeHandler creates a badge handler. cacheMaxAge is the shared cache lifetime in seconds.
func NewBadgeHandler(renderer tasks.Renderer, cacheMaxAge int, logger *log.Logger) *BadgeHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &BadgeHandler{renderer: renderer, cacheMaxAge: max(cacheMaxAge, 0), logger: logger}
}

// ServeHTTP renders the badge. It is mounted as the router fallback so any path renders.
//
// A request without an id, or whose user must authorize again, is redirected to /login with its options.
func (h *BadgeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := widget.ParseOptions(q)

	userID := q.Get("id")
	if userID == "" {
		http.Redirect(w, r, LoginURL(opts), http.StatusFound)
		return
	}

	logger := h.logger.With("user", userID, "request_id", RequestIDFrom(r.Context()))
	start := time.Now()

	badge, err := h.renderer.Render(r.Context(), userID, opts, nil)
	switch {
	case errors.Is(err, shared.ErrNoCredential), errors.Is(err, shared.ErrRefreshFailed):
		logger.Warn("re-authorization required", "error", err)
		http.Redirect(w, r, LoginURL(opts), http.StatusFound)
		return
	case err != nil:
		logger.Error("render failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render badge")
		return
	}

	logger.Debug("badge rendered", "track", badge.Track.TrackName, "degraded", badge.Degraded, "duration", time.Since(start))

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "s-maxage="+strconv.Itoa(h.cacheMaxAge))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(badge.SVG)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintln(w, `{"error":"encoding failed"}`)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/widget"
)

// CredentialWriter persists the credential issued by a completed login.
type CredentialWriter interface {
	Upsert(ctx context.Context, cred *models.Credential) error
}

// AuthHandler handles the OAuth2 authorization code flow for badge users.
// Implements the Handler interface for registration with a Router.
type AuthHandler struct {
	authorizer  services.Authorizer
	store       CredentialWriter
	states      *StateStore
	fallbackURL string
	now         func() time.Time
	logger      *log.Logger
}

// AuthOption configures an [AuthHandler].
type AuthOption func(*AuthHandler)

// WithFallbackURL sets where a failed callback redirects. Empty responds 502.
func WithFallbackURL(u string) AuthOption {
	return func(h *AuthHandler) { h.fallbackURL = u }
}

// WithAuthClock replaces time.Now when computing credential expiry.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(h *AuthHandler) { h.now = now }
}

// WithAuthLogger sets the handler's logger.
func WithAuthLogger(l *log.Logger) AuthOption {
	return func(h *AuthHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewAuthHandler creates a new auth handler.
// States issued at /login are single use and carry the render options through the provider round trip.
func NewAuthHandler(authorizer services.Authorizer, store CredentialWriter, states *StateStore, opts ...AuthOption) *AuthHandler {
	if states == nil {
		states = NewStateStore(DefaultStateTTL)
	}
	h := &AuthHandler{
		authorizer: authorizer,
		store:      store,
		states:     states,
		now:        time.Now,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/login", "/callback"}
}

// ServeHTTP dispatches to the login or callback step.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.login(w, r)
	case "/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login stores the requested render options and sends the browser to the provider.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state := h.states.Issue(widget.ParseOptions(r.URL.Query()))
	h.logger.Debug("login started", "pending_states", h.states.Len(), "request_id", RequestIDFrom(r.Context()))
	http.Redirect(w, r, h.authorizer.AuthURL(state), http.StatusFound)
}

// callback validates state, exchanges the code, stores the credential and redirects to the badge.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logger := h.logger.With("request_id", RequestIDFrom(r.Context()))

	if e := q.Get("error"); e != "" {
		logger.Warn("authorization denied", "error", e, "description", q.Get("error_description"))
		writeError(w, http.StatusBadRequest, e)
		return
	}

	opts, ok := h.states.Consume(q.Get("state"))
	if !ok {
		logger.Warn("callback rejected", "error", shared.ErrInvalidState)
		writeError(w, http.StatusBadRequest, shared.ErrInvalidState.Error())
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: code", shared.ErrMissingArgument).Error())
		return
	}

	issued := h.now()
	grant, err := h.authorizer.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, r, logger, err)
		return
	}

	userID, err := h.authorizer.UserID(r.Context(), grant.AccessToken)
	if err != nil {
		h.fail(w, r, logger, err)
		return
	}

	cred := &models.Credential{
		UserID:       userID,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    issued.Add(grant.ExpiresIn),
	}
	if err := h.store.Upsert(r.Context(), cred); err != nil {
		logger.Error("failed to store credential", "user", userID, "error", err)
		if errors.Is(err, shared.ErrStoreUnavailable) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.fail(w, r, logger, err)
		return
	}

	logger.Info("user authorized", "user", userID)
	http.Redirect(w, r, BadgeURL(userID, opts), http.StatusFound)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	logger.Error("authorization failed", "error", err)
	if h.fallbackURL != "" {
		http.Redirect(w, r, h.fallbackURL, http.StatusFound)
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

// BadgeURL is the render path for userID with opts.
func BadgeURL(userID string, opts widget.Options) string {
	q := opts.Query()
	q.Set("id", userID)
	return "/api?" + q.Encode()
}

// LoginURL is the login path carrying opts.
func LoginURL(opts widget.Options) string {
	if q := opts.Query().Encode(); q != "" {
		return "/login?" + q
	}
	return "/login"
}

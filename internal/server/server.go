// package server contains middleware & handlers for the badge web service
package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, request ids and panic recovery.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the badge service.
// Implementations handle specific endpoints (auth, badge rendering, health).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Deps are the collaborators the service routes need.
type Deps struct {
	Authorizer  services.Authorizer
	Store       CredentialWriter
	Renderer    tasks.Renderer
	Ping        func(ctx context.Context) error
	Logger      *log.Logger
	CacheMaxAge int    // seconds for the shared cache directive
	FallbackURL string // redirect target when the callback fails; empty responds 502
}

// New wires every route onto a [BasicRouter].
//
// The badge handler is registered last because it serves every path the others do not.
func New(d Deps) *BasicRouter {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := NewBasicRouter()
	r.Use(RequestID(), Recover(logger), Logging(logger))

	r.Handler(NewHealthHandler(d.Ping))
	r.Handler(NewAuthHandler(d.Authorizer, d.Store, NewStateStore(DefaultStateTTL),
		WithFallbackURL(d.FallbackURL), WithAuthLogger(logger)))
	r.Fallback(NewBadgeHandler(d.Renderer, d.CacheMaxAge, logger))

	return r
}

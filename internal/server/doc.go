// Package server provides HTTP routing, middleware, and the handlers of the badge service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses gorilla/mux internally with method filtering and a fallback route.
// [New] wires the request id, panic recovery and access log middleware around every route.
//
// # Routes
//
//   - /healthz pings the credential store.
//   - /login issues a single-use state carrying the render options and redirects to the provider.
//   - /callback validates the state, exchanges the code, stores the credential and redirects to the badge URL.
//   - every other path renders the badge for ?id, or redirects to /login when id is missing or the user must
//     authorize again.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

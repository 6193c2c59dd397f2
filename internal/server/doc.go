// Package server provides the loopback HTTP plumbing for CLI OAuth flows.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] implements the OAuth2 authorization code callback.
// It validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and delivers the result through a channel.
// Only the first callback is processed; replays get a 400.
//
// # Current Usage
//
// When the user runs `likesync auth spotify`, a temporary server starts on
// the loopback redirect address from the config, handles the callback, and
// shuts down once the token arrives or the flow times out.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which extends the stdlib
// handler with a Routes method so a handler can register every path it serves.
package server

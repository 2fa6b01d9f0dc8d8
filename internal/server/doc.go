// Package server provides the HTTP pieces of the interactive token flow.
//
// # Router Infrastructure
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback.
//
// The handler validates the state parameter, exchanges the authorization code for tokens through an [Exchanger],
// and sends the result through a channel. It only processes one callback.
//
// A temporary server is only started when the redirect URI is a plain-http loopback address ([LoopbackCallback]).
// For any other redirect URI the user pastes the redirected URL, which [CodeFromURL] parses with the same checks.
package server

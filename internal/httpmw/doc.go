// Package httpmw provides HTTP middleware for the public-facing server.
//
// Harden sets the browser security headers and is composed outermost in
// httpserver.NewHandler so every response carries them, including rate
// limited and recovered responses. Inside it come recovery, request ID,
// client IP extraction, rate limiting, OTEL tracing, metrics, request
// scoped logging and the chi router.
//
// Each middleware is an independent func(http.Handler) http.Handler and can
// be tested on its own. Query strings and user-agent values are kept out of
// log fields.
package httpmw

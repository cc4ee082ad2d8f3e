// Package httpserver provides a thin wrapper around net/http.Server with
// graceful shutdown on context cancellation or SIGINT/SIGTERM, configured
// through functional options.
package httpserver

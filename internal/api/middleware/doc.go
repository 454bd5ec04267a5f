// Package middleware holds the gin middleware of the HTTP API: CORS and per-client
// rate limiting on golang.org/x/time/rate.
package middleware

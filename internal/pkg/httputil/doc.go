// Package httputil provides shared HTTP response helpers for the API handlers.
//
// Handlers use these instead of raw http.ResponseWriter calls so every
// endpoint returns the same JSON error envelope.
package httputil

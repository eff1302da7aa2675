// Package middleware provides HTTP middleware for the fiber server.
//
// This package includes:
//   - Prometheus request metrics
//   - OpenTelemetry request tracing
//
// Both are plain func(http.Handler) http.Handler and work with any chi
// router:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("my-app")))
//
// # Route labels
//
// Requests are labelled by the chi route pattern, not the raw path, so
// label cardinality stays bounded. Requests no route matched are
// labelled "unmatched".
//
// # WebSocket upgrades
//
// A WebSocket request stays inside the handler for the whole session.
// Use WithFilter to keep such requests out of the latency histogram.
// The wrapped ResponseWriter still supports Hijack.
package middleware
